package gmail

import "strings"

// Result limits for list and search.
const (
	DefaultMaxResults int64 = 10
	MaxMaxResults     int64 = 100
)

// ClampMaxResults bounds n to [1, MaxMaxResults].
func ClampMaxResults(n int64) int64 {
	switch {
	case n < 1:
		return 1
	case n > MaxMaxResults:
		return MaxMaxResults
	default:
		return n
	}
}

// BuildQuery returns a Gmail search expression matching mail from any of
// senders, e.g. "(from:a OR from:b) is:unread". filter is appended verbatim;
// "is:unread" is added when includeRead is false.
func BuildQuery(senders []string, filter string, includeRead bool) string {
	terms := make([]string, len(senders))
	for i, s := range senders {
		terms[i] = "from:" + s
	}

	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strings.Join(terms, " OR "))
	b.WriteString(")")

	if filter = strings.TrimSpace(filter); filter != "" {
		b.WriteString(" ")
		b.WriteString(filter)
	}
	if !includeRead {
		b.WriteString(" is:unread")
	}
	return b.String()
}
