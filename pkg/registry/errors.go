package registry

import "fmt"

// ParseError reports data that cannot be turned into an instance.
type ParseError struct {
	Message string
	Err     error
}

// NewParseError creates a ParseError with an optional cause.
func NewParseError(cause error, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializeError reports an instance that cannot be turned into wire form.
type SerializeError struct {
	Message string
	Err     error
}

// NewSerializeError creates a SerializeError with an optional cause.
func NewSerializeError(cause error, format string, args ...any) *SerializeError {
	return &SerializeError{Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *SerializeError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SerializeError) Unwrap() error { return e.Err }

// Error wraps an unexpected failure raised by a plugin's parser or serializer.
// The cause is kept for diagnostics and is not meant for API consumers.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// PanicError is the cause recorded when a plugin panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
