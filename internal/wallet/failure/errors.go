package failure

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies why a wallet operation failed. The HTTP layer maps kinds to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthMissing
	KindAuthInvalid
	KindRateLimited
	KindValidation
	KindRemoteQuery
	KindSubmission
	KindInvalidPhrase
	KindNotDeployed
	KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindAuthMissing:
		return "AUTH_MISSING"
	case KindAuthInvalid:
		return "AUTH_INVALID"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindValidation:
		return "VALIDATION"
	case KindRemoteQuery:
		return "REMOTE_QUERY"
	case KindSubmission:
		return "SUBMISSION"
	case KindInvalidPhrase:
		return "INVALID_PHRASE"
	case KindNotDeployed:
		return "NOT_DEPLOYED"
	case KindEncoding:
		return "ENCODING"
	default:
		return "INTERNAL"
	}
}

// Error is a classified failure. Message is safe to return to API callers.
type Error struct {
	Kind     Kind
	Message  string
	Original error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Original))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Original
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Original: err}
}

// KindOf returns the kind of the first classified error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == kind
}

// MessageOf returns the message of the first classified error in err's chain, without its cause.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
