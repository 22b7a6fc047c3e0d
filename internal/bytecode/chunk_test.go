package bytecode

import (
	"testing"

	"github.com/chazu/finch/internal/value"
)

func TestAddConstant(t *testing.T) {
	c := NewChunk()
	idx, err := c.AddConstant(value.Number(42))
	if err != nil {
		t.Fatalf("AddConstant returned error: %v", err)
	}
	if idx != 0 {
		t.Errorf("idx = %d, want 0", idx)
	}
	if c.Constants[0].AsNumber() != 42 {
		t.Errorf("Constants[0] = %v, want 42", c.Constants[0])
	}
}

func TestAddConstantOverflow(t *testing.T) {
	c := NewChunk()
	for i := 0; i < MaxConstants; i++ {
		if _, err := c.AddConstant(value.Number(float64(i))); err != nil {
			t.Fatalf("unexpected error at constant %d: %v", i, err)
		}
	}
	if _, err := c.AddConstant(value.Number(999)); err == nil {
		t.Fatal("expected error adding constant beyond MaxConstants, got nil")
	}
}

func TestEmitConstant(t *testing.T) {
	c := NewChunk()
	if err := c.EmitConstant(value.Number(7), 1); err != nil {
		t.Fatalf("EmitConstant returned error: %v", err)
	}
	if len(c.Code) != 2 {
		t.Fatalf("len(Code) = %d, want 2", len(c.Code))
	}
	if Op(c.Code[0]) != OpConstant {
		t.Errorf("Code[0] = %v, want OpConstant", Op(c.Code[0]))
	}
}

func TestJumpPatching(t *testing.T) {
	c := NewChunk()
	offset := c.EmitJump(OpJumpIfFalse, 1)
	c.WriteOp(OpPop, 1)
	c.WriteOp(OpPop, 1)
	if err := c.PatchJump(offset); err != nil {
		t.Fatalf("PatchJump returned error: %v", err)
	}
	jump := c.ReadUint16(offset)
	if jump != 2 {
		t.Errorf("patched jump = %d, want 2", jump)
	}
}

func TestEmitLoop(t *testing.T) {
	c := NewChunk()
	loopStart := c.CurrentOffset()
	c.WriteOp(OpPop, 1)
	if err := c.EmitLoop(loopStart, 1); err != nil {
		t.Fatalf("EmitLoop returned error: %v", err)
	}
	// OP_LOOP + 2 operand bytes follow the single OP_POP byte.
	if len(c.Code) != 4 {
		t.Fatalf("len(Code) = %d, want 4", len(c.Code))
	}
}

func TestPatchJumpTooFar(t *testing.T) {
	c := NewChunk()
	offset := c.EmitJump(OpJump, 1)
	c.Code = append(c.Code, make([]byte, MaxJump+1)...)
	if err := c.PatchJump(offset); err == nil {
		t.Fatal("expected error for jump distance beyond MaxJump, got nil")
	}
}
