package google

import (
	"errors"
	"path/filepath"
)

// ErrMissingCredentials reports that no usable Gmail credential is available
// and none can be obtained without user action.
var ErrMissingCredentials = errors.New("missing Gmail credentials")

// CredentialsError is returned when setup is incomplete. Its message is the
// remediation text shown to the user.
type CredentialsError struct {
	Message string
	Err     error
}

func (e *CredentialsError) Error() string {
	return e.Message
}

// Unwrap exposes both ErrMissingCredentials and the underlying cause.
func (e *CredentialsError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingCredentials}
	}
	return []error{ErrMissingCredentials, e.Err}
}

func missingClientFile(path string, err error) error {
	return &CredentialsError{
		Message: filepath.Base(path) + " not found. Please download it from Google Cloud Console.",
		Err:     err,
	}
}

func noUsableToken(tokenPath string) error {
	return &CredentialsError{
		Message: "no usable Gmail token at " + tokenPath + " and interactive authorization is disabled. Run the auth command to authorize.",
	}
}
