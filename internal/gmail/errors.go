package gmail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrNotFound is returned when a message ID does not exist in the mailbox.
var ErrNotFound = errors.New("message not found")

// UpstreamError is a failed Gmail API call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status reported by Gmail, or 0 if unknown.
func (e *UpstreamError) StatusCode() int {
	var apiErr *googleapi.Error
	if errors.As(e.Err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// NotFoundError carries the ID of a missing message and matches ErrNotFound.
type NotFoundError struct {
	MessageID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Message %s not found", e.MessageID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// classifyError maps a Gmail call failure onto the package error types.
// messageID is used for 404s on message lookups; pass "" for list calls.
func classifyError(op, messageID string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if messageID != "" && apiErr.Code == http.StatusNotFound {
		return &NotFoundError{MessageID: messageID}
	}
	return &UpstreamError{Op: op, Err: apiErr}
}
