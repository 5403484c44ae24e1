package gmail

import gmail "google.golang.org/api/gmail/v1"

// Defaults for absent headers.
const (
	DefaultSubject = "No Subject"
	DefaultHeader  = "Unknown"
)

// MessageSummary is the list/search projection of a message.
type MessageSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// MessageDetail is a full message with its extracted body.
type MessageDetail struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

// headerMap indexes the top-level headers of m. A repeated header keeps its last value.
func headerMap(m *gmail.Message) map[string]string {
	headers := make(map[string]string)
	if m == nil || m.Payload == nil {
		return headers
	}
	for _, h := range m.Payload.Headers {
		if h == nil {
			continue
		}
		headers[h.Name] = h.Value
	}
	return headers
}

func valueOr(headers map[string]string, name, fallback string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	return fallback
}

// NewMessageSummary projects a metadata-format message. id is the listed
// identifier; the fetched message ID is not trusted to be present.
func NewMessageSummary(id string, m *gmail.Message) MessageSummary {
	headers := headerMap(m)
	var snippet string
	if m != nil {
		snippet = m.Snippet
	}
	return MessageSummary{
		ID:      id,
		Subject: valueOr(headers, "Subject", DefaultSubject),
		From:    valueOr(headers, "From", DefaultHeader),
		Date:    valueOr(headers, "Date", DefaultHeader),
		Snippet: snippet,
	}
}

// NewMessageDetail projects a full-format message using body as its body text.
func NewMessageDetail(m *gmail.Message, body string) MessageDetail {
	headers := headerMap(m)
	return MessageDetail{
		ID:      m.Id,
		Subject: valueOr(headers, "Subject", DefaultSubject),
		From:    valueOr(headers, "From", DefaultHeader),
		To:      valueOr(headers, "To", DefaultHeader),
		Date:    valueOr(headers, "Date", DefaultHeader),
		Body:    body,
	}
}
