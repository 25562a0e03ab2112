package decoder

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/trace"
)

// Option configures a Decoder. Modelled on the teacher assembler's
// hand-rolled configuration surface (NewAssembler takes no arguments;
// cmd/cli wires cobra/pflag flags by hand) — this module's analogous
// "configuration layer" is a small set of functional options rather than a
// file- or env-driven config package, since a library with two real inputs
// (a byte source and a mode) has no surface for either.
type Option func(*Decoder)

// WithLogger attaches a logrus.FieldLogger used for diagnostics: the
// resolved mnemonic at debug level and the returned error kind at error
// level. It never participates in control flow; a nil logger (the default) disables
// all logging.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Decoder) { d.log = log }
}

// WithTrace attaches a *trace.Trace that records one entry per instruction
// read (and per error), tagged with the instruction index and the number of
// bytes consumed when the event happened. Unlike WithLogger, a Trace is
// queryable afterward (Entries, HasErrors) rather than only streamed to a
// log sink.
func WithTrace(t *trace.Trace) Option {
	return func(d *Decoder) { d.trace = t }
}

// Decoder is a sequential, single-threaded streaming decoder over one byte
// source. It is not safe for concurrent use; build one Decoder per
// goroutine over independent sources to parallelise.
type Decoder struct {
	src      Source
	mode     isa.Mode
	log      logrus.FieldLogger
	trace    *trace.Trace
	consumed int // bytes consumed so far in the instruction in progress
	index    int // instructions successfully returned so far
}

// New constructs a Decoder reading from source under mode.
func New(source Source, mode isa.Mode, opts ...Option) *Decoder {
	d := &Decoder{src: source, mode: mode}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// translateReadErr turns a Source error into the appropriate DecodingError
// kind: io.EOF before any byte of the current instruction has been
// consumed is EndOfStream; io.EOF after at least one byte has been
// consumed is PartialInstruction; anything else is ReadError.
func (d *Decoder) translateReadErr(err error, consumedAny bool) error {
	if err == io.EOF {
		if d.consumed > 0 || consumedAny {
			return partialInstruction("stream ended mid-instruction")
		}
		return endOfStream()
	}
	return readError(err)
}

// Read decodes exactly one instruction from the underlying source.
func (d *Decoder) Read() (Instruction, error) {
	d.consumed = 0

	if _, err := d.src.Peek(); err != nil {
		if err == io.EOF {
			return Instruction{}, endOfStream()
		}
		return Instruction{}, readError(err)
	}

	if d.trace != nil {
		d.trace.SetStage("prefix")
	}
	var buf buffer
	opcodeByte, err := d.readPrefixes(&buf)
	if err != nil {
		d.logErr(err)
		return Instruction{}, err
	}

	if d.trace != nil {
		d.trace.SetStage("opcode")
	}
	inst, err := d.resolveAndDecode(&buf, opcodeByte)
	if err != nil {
		d.logErr(err)
		return Instruction{}, err
	}

	if d.log != nil {
		d.log.WithField("mnemonic", inst.Mnemonic).Debug("decoded instruction")
	}
	if d.trace != nil {
		d.trace.Info(trace.At(d.index, d.consumed), "decoded "+inst.Mnemonic)
	}
	d.index++
	return inst, nil
}

func (d *Decoder) logErr(err error) {
	if de, ok := err.(*DecodingError); ok {
		if d.log != nil {
			d.log.WithField("kind", de.kind.String()).Error(de.Error())
		}
		if d.trace != nil {
			d.trace.Error(trace.At(d.index, d.consumed), de.Error())
		}
	}
}
