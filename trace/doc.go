// Package trace provides a passive, append-only diagnostic log for the
// decoder: one entry per notable event in the prefix/opcode/operand
// pipeline, tagged with the byte offset it happened at. It does not
// perform I/O or formatting — a caller renders Entries() however it likes.
package trace
