package decoder

import "fmt"

// errorKind is one of the five terminal decode-failure kinds. It is
// unexported so callers compare against it with errors.Is and the Err*
// sentinels below, the same pattern the standard library's own io package
// uses for io.EOF-adjacent sentinels.
type errorKind int

const (
	kindEndOfStream errorKind = iota
	kindPartialInstruction
	kindReadError
	kindInvalidInstruction
	kindUnknownOpcode
)

func (k errorKind) String() string {
	switch k {
	case kindEndOfStream:
		return "end of stream"
	case kindPartialInstruction:
		return "partial instruction"
	case kindReadError:
		return "read error"
	case kindInvalidInstruction:
		return "invalid instruction"
	case kindUnknownOpcode:
		return "unknown opcode"
	default:
		return "unknown decoding error"
	}
}

// DecodingError is the single error type Read ever returns. Compare its
// kind with errors.Is against the Err* sentinels; unwrap it with
// errors.Unwrap (or errors.As) to reach an underlying ReadError cause.
type DecodingError struct {
	kind  errorKind
	msg   string
	cause error
}

func (e *DecodingError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("decoder: %s: %s: %v", e.kind, e.msg, e.cause)
	}
	if e.msg != "" {
		return fmt.Sprintf("decoder: %s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("decoder: %s", e.kind)
}

func (e *DecodingError) Unwrap() error { return e.cause }

// Is reports whether target is one of the Err* sentinels sharing e's kind,
// so callers can write errors.Is(err, decoder.ErrUnknownOpcode).
func (e *DecodingError) Is(target error) bool {
	sentinel, ok := target.(*DecodingError)
	if !ok {
		return false
	}
	return sentinel.kind == e.kind && sentinel.msg == ""
}

var (
	ErrEndOfStream        = &DecodingError{kind: kindEndOfStream}
	ErrPartialInstruction = &DecodingError{kind: kindPartialInstruction}
	ErrReadError          = &DecodingError{kind: kindReadError}
	ErrInvalidInstruction = &DecodingError{kind: kindInvalidInstruction}
	ErrUnknownOpcode      = &DecodingError{kind: kindUnknownOpcode}
)

func endOfStream() error { return &DecodingError{kind: kindEndOfStream} }

func partialInstruction(msg string) error {
	return &DecodingError{kind: kindPartialInstruction, msg: msg}
}

func readError(cause error) error {
	return &DecodingError{kind: kindReadError, cause: cause}
}

func invalidInstruction(msg string) error {
	return &DecodingError{kind: kindInvalidInstruction, msg: msg}
}

func unknownOpcode(msg string) error {
	return &DecodingError{kind: kindUnknownOpcode, msg: msg}
}
