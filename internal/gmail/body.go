package gmail

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

// NoBodyFound is returned by ExtractBody when no part yields readable text.
const NoBodyFound = "No body content found"

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

var errInvalidUTF8 = errors.New("body is not valid UTF-8")

// ExtractBody returns the best readable body of a message payload.
//
// Inline data on part itself wins. Otherwise the direct children are
// scanned for text/plain, then for text/html, and finally nested multiparts
// are searched depth-first in order. Parts whose data does not decode are
// skipped. If nothing decodes, NoBodyFound is returned.
func ExtractBody(part *gmail.MessagePart) string {
	return extractBody(part, nil)
}

// ExtractBodyWithLogger is ExtractBody with skipped parts logged at debug level.
func ExtractBodyWithLogger(part *gmail.MessagePart, logger *slog.Logger) string {
	return extractBody(part, logger)
}

func extractBody(part *gmail.MessagePart, logger *slog.Logger) string {
	if part == nil {
		return NoBodyFound
	}

	if body, ok := partText(part, logger); ok {
		return body
	}

	for _, mimeType := range []string{mimeTextPlain, mimeTextHTML} {
		for _, child := range part.Parts {
			if child == nil || child.MimeType != mimeType {
				continue
			}
			if body, ok := partText(child, logger); ok {
				return body
			}
		}
	}

	for _, child := range part.Parts {
		if child == nil || len(child.Parts) == 0 {
			continue
		}
		if body := extractBody(child, logger); body != NoBodyFound {
			return body
		}
	}

	return NoBodyFound
}

// partText decodes the inline data of part, if any.
func partText(part *gmail.MessagePart, logger *slog.Logger) (string, bool) {
	if part.Body == nil || part.Body.Data == "" {
		return "", false
	}

	text, err := DecodeBodyData(part.Body.Data)
	if err != nil {
		if logger != nil {
			logger.Debug("skipping undecodable message part",
				slog.String("part_id", part.PartId),
				slog.String("mime_type", part.MimeType),
				slog.String("error", err.Error()))
		}
		return "", false
	}
	return text, true
}

// DecodeBodyData decodes Gmail body data. Gmail uses base64url; padded,
// unpadded and standard alphabets are accepted. The result must be UTF-8.
func DecodeBodyData(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
	}
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
	}
	if err != nil {
		return "", err
	}

	if !utf8.Valid(decoded) {
		return "", errInvalidUTF8
	}
	return string(decoded), nil
}
