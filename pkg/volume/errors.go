package volume

import "errors"

// Error taxonomy shared by the estimation engine.
var (
	// ErrInvalidInput is the parent of every caller-visible validation error.
	ErrInvalidInput = errors.New("invalid input")

	ErrUnsupportedCountry = newInvalidInput("unsupported country")
	ErrUnsupportedMethod  = newInvalidInput("unsupported method")
	ErrEmptyKeyword       = newInvalidInput("keyword is empty")

	// ErrSourceUnavailable covers transport failures, timeouts, non-200
	// responses and undecodable payloads from a signal source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoSignal means the source answered but carried nothing usable.
	ErrNoSignal = errors.New("no usable signal")

	// ErrStorageUnavailable wraps cache backend failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// invalidInputError keeps its own message while matching ErrInvalidInput.
type invalidInputError struct {
	msg string
}

func newInvalidInput(msg string) error {
	return &invalidInputError{msg: msg}
}

func (e *invalidInputError) Error() string { return e.msg }

func (e *invalidInputError) Unwrap() error { return ErrInvalidInput }
