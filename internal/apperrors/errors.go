package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInvalidImage           Kind = "invalid_image"
	KindSchemeRejected         Kind = "scheme_rejected"
	KindTimeout                Kind = "timeout"
	KindRemoteError            Kind = "remote_error"
	KindUnsupportedContentType Kind = "unsupported_content_type"
	KindTooLarge               Kind = "too_large"
	KindNameConflict           Kind = "name_conflict"
	KindDangling               Kind = "dangling"
	KindInvalidArgument        Kind = "invalid_argument"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
	// Status is the upstream HTTP status for KindRemoteError, zero otherwise.
	Status int
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindNotFound:
		return "Icon not found."
	case KindInvalidImage:
		return "File is not a readable image."
	case KindSchemeRejected:
		return "URL must use HTTPS."
	case KindTimeout:
		return "Remote host did not respond in time."
	case KindRemoteError:
		return "Remote host returned an error."
	case KindUnsupportedContentType:
		return "URL does not point to an image."
	case KindTooLarge:
		return "Image is too large."
	case KindNameConflict:
		return "An icon with that name already exists."
	case KindDangling:
		return "Referenced icon no longer exists."
	case KindInvalidArgument:
		return "Invalid argument."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

// Newf is New with a formatted safe message.
func Newf(kind Kind, cause error, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...), cause)
}

func NotFound(identifier string) error {
	return Newf(KindNotFound, nil, "Icon %s does not exist.", identifier)
}

func InvalidImage(err error) error {
	return New(KindInvalidImage, "", err)
}

func Timeout(err error) error {
	return New(KindTimeout, "", err)
}

func InvalidArgument(format string, args ...any) error {
	return New(KindInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// RemoteError records a non-success HTTP status.
func RemoteError(status int) error {
	return &Error{
		Kind:        KindRemoteError,
		SafeMessage: fmt.Sprintf("Failed to download image. HTTP response code: %d", status),
		Status:      status,
	}
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// StatusOf returns the HTTP status recorded on a remote error.
func StatusOf(err error) (int, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRemoteError {
		return 0, false
	}
	return e.Status, true
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
