package trace

import "testing"

func TestTraceRecordsInOrder(t *testing.T) {
	tr := New("<mem>")
	tr.SetStage("prefix")
	tr.Trace(At(0, 0), "start")
	tr.SetStage("opcode")
	tr.Info(At(0, 2), "resolved ADD")
	tr.SetStage("operand")
	tr.Error(At(1, 0), "boom")

	entries := tr.Entries()
	if len(entries) != 3 {
		t.Fatalf("len(Entries()) = %d, want 3", len(entries))
	}
	if entries[1].Stage() != "opcode" || entries[1].Message() != "resolved ADD" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if !tr.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestLocationString(t *testing.T) {
	loc := At(3, 7)
	if got, want := loc.String(), "instr#3+7"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
