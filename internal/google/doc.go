// Package google manages the OAuth2 credential used to call the Gmail API.
//
// A SessionManager owns at most one authorized Session per process. The
// session is built from a client registration file (credentials.json) and a
// persisted token (token.json). Expired tokens are refreshed and written
// back; when no usable token exists an Authorizer obtains a new one through
// the browser consent flow.
package google
