package jvm

import "testing"

func TestInstructionLengthCoversCode(t *testing.T) {
	// a valid stream: every instruction length advances exactly onto the
	// next opcode and the walk ends on the final byte
	code := []byte{
		opBipush, 14,
		opIstore1,
		opSipush, 1, 158,
		opIload1,
		opIinc, 1, 1,
		opGoto, 0, 3,
		opNop,
		opIreturn,
	}

	var ops []byte
	pc := 0
	for pc < len(code) {
		op := code[pc]
		length := InstructionLength(op)
		if length == 0 {
			t.Fatalf("unsupported opcode %d at pc=%d", op, pc)
		}
		ops = append(ops, op)
		pc += length
	}
	if pc != len(code) {
		t.Fatalf("walk ended at %d, want %d", pc, len(code))
	}

	want := []byte{opBipush, opIstore1, opSipush, opIload1, opIinc, opGoto, opNop, opIreturn}
	if len(ops) != len(want) {
		t.Fatalf("decoded %d instructions, want %d", len(ops), len(want))
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("instruction %d: got %s, want %s", i,
				InstructionName(ops[i]), InstructionName(want[i]))
		}
	}
}

func TestValidateCode(t *testing.T) {
	t.Run("accepts a valid stream", func(t *testing.T) {
		if err := validateCode([]byte{opIconst2, opIconst3, opIadd, opIreturn}); err != nil {
			t.Errorf("validateCode: %v", err)
		}
	})

	t.Run("rejects unknown opcodes", func(t *testing.T) {
		// 0xC5 (multianewarray) is outside the supported set
		if err := validateCode([]byte{opIconst0, 0xC5, 0, 1, 2}); err == nil {
			t.Error("validateCode accepted an unsupported opcode")
		}
	})

	t.Run("rejects instructions running past the end", func(t *testing.T) {
		if err := validateCode([]byte{opSipush, 0}); err == nil {
			t.Error("validateCode accepted a truncated sipush")
		}
	})

	t.Run("empty code is covered", func(t *testing.T) {
		if err := validateCode(nil); err != nil {
			t.Errorf("validateCode(nil): %v", err)
		}
	})
}

func TestInstructionNames(t *testing.T) {
	cases := map[byte]string{
		opNop:             "nop",
		opInvokevirtual:   "invokevirtual",
		opInvokeinterface: "invokeinterface",
		opImpdep1:         "impdep1",
	}
	for op, want := range cases {
		if got := InstructionName(op); got != want {
			t.Errorf("InstructionName(%d): got %q, want %q", op, got, want)
		}
	}
	if got := InstructionName(0xC5); got != "unknown" {
		t.Errorf("InstructionName(0xC5): got %q, want unknown", got)
	}
}
