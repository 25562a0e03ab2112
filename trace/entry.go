package trace

import "fmt"

// Severity constants for entry classification.
const (
	SeverityError = "error"
	SeverityInfo  = "info"
	SeverityTrace = "trace"
)

// Entry is a single diagnostic event recorded during decoding: what stage
// produced it, where in the stream it happened, and how severe it is.
type Entry struct {
	severity string
	stage    string
	message  string
	location Location
}

func (e *Entry) Severity() string   { return e.severity }
func (e *Entry) Stage() string      { return e.stage }
func (e *Entry) Message() string    { return e.message }
func (e *Entry) Location() Location { return e.location }

func (e *Entry) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", e.severity, e.stage, e.location, e.message)
}
