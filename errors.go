package prolix

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every failure the operation surface can return.
type Kind int

const (
	KindEmptyInput Kind = iota + 1
	KindMissingKeyOrText
	KindStoreUnavailable
	KindNotFoundOrExpired
	KindDecodeError
	KindMalformedSequence
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "EmptyInput"
	case KindMissingKeyOrText:
		return "MissingKeyOrText"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindNotFoundOrExpired:
		return "NotFoundOrExpired"
	case KindDecodeError:
		return "DecodeError"
	case KindMalformedSequence:
		return "MalformedSequence"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) description() string {
	switch k {
	case KindEmptyInput:
		return "no text given to obscure"
	case KindMissingKeyOrText:
		return "key and obscured text are both required"
	case KindStoreUnavailable:
		return "descriptor store unavailable"
	case KindNotFoundOrExpired:
		return "key not found or expired"
	case KindDecodeError:
		return "stored descriptor is malformed"
	case KindMalformedSequence:
		return "obscured text does not match the stored descriptor"
	}
	return "unknown error"
}

// Error is returned by every operation of Prolix. It matches the exported
// sentinels of the same Kind through errors.Is.
type Error struct {
	Kind    Kind
	Details []string
	Err     error
}

var (
	ErrEmptyInput        = &Error{Kind: KindEmptyInput}
	ErrMissingKeyOrText  = &Error{Kind: KindMissingKeyOrText}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
	ErrNotFoundOrExpired = &Error{Kind: KindNotFoundOrExpired}
	ErrDecode            = &Error{Kind: KindDecodeError}
	ErrMalformedSequence = &Error{Kind: KindMalformedSequence}
)

func newError(kind Kind, err error, details ...string) *Error {
	return &Error{Kind: kind, Details: details, Err: err}
}

func (e *Error) Error() string {
	msg := "prolix: " + e.Kind.description()
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Messages returns the human readable descriptions of the failure. The list is
// never empty.
func (e *Error) Messages() []string {
	if len(e.Details) > 0 {
		return append([]string(nil), e.Details...)
	}
	return []string{e.Kind.description()}
}

// KindOf returns the Kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
