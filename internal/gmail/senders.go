package gmail

import (
	"fmt"
	"strings"
)

// KnownSenders is the allow-list of LinkedIn notification addresses, in query order.
var KnownSenders = []string{
	"messages-noreply@linkedin.com",
	"invitations@linkedin.com",
	"notifications@linkedin.com",
	"jobs-noreply@linkedin.com",
	"recruiting@linkedin.com",
	"linkedin@linkedin.com",
}

// Category narrows a search to one kind of LinkedIn mail.
type Category string

const (
	CategoryMessages      Category = "messages"
	CategoryInvitations   Category = "invitations"
	CategoryJobs          Category = "jobs"
	CategoryNotifications Category = "notifications"
	CategoryAll           Category = "all"
)

// Categories lists every accepted category.
var Categories = []Category{
	CategoryMessages,
	CategoryInvitations,
	CategoryJobs,
	CategoryNotifications,
	CategoryAll,
}

var categorySenders = map[Category][]string{
	CategoryMessages:      {"messages-noreply@linkedin.com"},
	CategoryInvitations:   {"invitations@linkedin.com"},
	CategoryJobs:          {"jobs-noreply@linkedin.com"},
	CategoryNotifications: {"notifications@linkedin.com"},
	CategoryAll:           KnownSenders,
}

// ParseCategory validates s. The empty string means CategoryAll.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryAll, nil
	}
	c := Category(s)
	if _, ok := categorySenders[c]; !ok {
		return "", fmt.Errorf("unknown email type %q, must be one of: %s", s, CategoryNames())
	}
	return c, nil
}

// CategoryNames returns the accepted categories as a comma-separated list.
func CategoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Senders returns the sender addresses for c. Unknown categories have none.
func (c Category) Senders() []string {
	senders := categorySenders[c]
	out := make([]string, len(senders))
	copy(out, senders)
	return out
}
