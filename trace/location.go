package trace

import "fmt"

// Location identifies a position within the decoded byte stream: which
// instruction (0-based, counting successful Read calls) and which byte
// offset within that instruction's encoding. It is a value type — safe to
// copy and compare.
type Location struct {
	instruction int
	offset      int
}

// At creates a Location for the given instruction index and byte offset.
func At(instruction, offset int) Location {
	return Location{instruction: instruction, offset: offset}
}

// Instruction returns the 0-based instruction index.
func (l Location) Instruction() int { return l.instruction }

// Offset returns the 0-based byte offset within the instruction.
func (l Location) Offset() int { return l.offset }

func (l Location) String() string {
	return fmt.Sprintf("instr#%d+%d", l.instruction, l.offset)
}
