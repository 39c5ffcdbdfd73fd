package jvm

// Supported opcodes. The numbering is the JVMS one; anything not listed
// here fails validation at class-load time.
const (
	opNop             = 0
	opAconstNull      = 1
	opIconstM1        = 2
	opIconst0         = 3
	opIconst1         = 4
	opIconst2         = 5
	opIconst3         = 6
	opIconst4         = 7
	opIconst5         = 8
	opLconst0         = 9
	opLconst1         = 10
	opFconst0         = 11
	opFconst1         = 12
	opFconst2         = 13
	opDconst0         = 14
	opDconst1         = 15
	opBipush          = 16
	opSipush          = 17
	opLdc             = 18
	opLdc2W           = 20
	opIload           = 21
	opLload           = 22
	opFload           = 23
	opDload           = 24
	opAload           = 25
	opIload0          = 26
	opIload1          = 27
	opIload2          = 28
	opIload3          = 29
	opLload0          = 30
	opLload1          = 31
	opLload2          = 32
	opLload3          = 33
	opFload0          = 34
	opFload1          = 35
	opFload2          = 36
	opFload3          = 37
	opDload0          = 38
	opDload1          = 39
	opDload2          = 40
	opDload3          = 41
	opAload0          = 42
	opAload1          = 43
	opAload2          = 44
	opAload3          = 45
	opIaload          = 46
	opLaload          = 47
	opFaload          = 48
	opDaload          = 49
	opAaload          = 50
	opBaload          = 51
	opCaload          = 52
	opSaload          = 53
	opIstore          = 54
	opLstore          = 55
	opFstore          = 56
	opDstore          = 57
	opAstore          = 58
	opIstore0         = 59
	opIstore1         = 60
	opIstore2         = 61
	opIstore3         = 62
	opLstore0         = 63
	opLstore1         = 64
	opLstore2         = 65
	opLstore3         = 66
	opFstore0         = 67
	opFstore1         = 68
	opFstore2         = 69
	opFstore3         = 70
	opDstore0         = 71
	opDstore1         = 72
	opDstore2         = 73
	opDstore3         = 74
	opAstore0         = 75
	opAstore1         = 76
	opAstore2         = 77
	opAstore3         = 78
	opIastore         = 79
	opLastore         = 80
	opFastore         = 81
	opDastore         = 82
	opAastore         = 83
	opBastore         = 84
	opCastore         = 85
	opSastore         = 86
	opPop             = 87
	opDup             = 89
	opDupX1           = 90
	opSwap            = 95
	opIadd            = 96
	opLadd            = 97
	opFadd            = 98
	opDadd            = 99
	opIsub            = 100
	opLsub            = 101
	opFsub            = 102
	opDsub            = 103
	opImul            = 104
	opLmul            = 105
	opFmul            = 106
	opDmul            = 107
	opIdiv            = 108
	opLdiv            = 109
	opFdiv            = 110
	opDdiv            = 111
	opIrem            = 112
	opLrem            = 113
	opIneg            = 116
	opLneg            = 117
	opFneg            = 118
	opDneg            = 119
	opIinc            = 132
	opI2l             = 133
	opI2f             = 134
	opI2d             = 135
	opL2i             = 136
	opL2d             = 138
	opF2d             = 141
	opD2i             = 142
	opD2l             = 143
	opLcmp            = 148
	opFcmpl           = 149
	opFcmpg           = 150
	opDcmpl           = 151
	opDcmpg           = 152
	opIfeq            = 153
	opIfne            = 154
	opIflt            = 155
	opIfge            = 156
	opIfgt            = 157
	opIfle            = 158
	opIfIcmpeq        = 159
	opIfIcmpne        = 160
	opIfIcmplt        = 161
	opIfIcmpge        = 162
	opIfIcmpgt        = 163
	opIfIcmple        = 164
	opIfAcmpeq        = 165
	opIfAcmpne        = 166
	opGoto            = 167
	opIreturn         = 172
	opLreturn         = 173
	opFreturn         = 174
	opDreturn         = 175
	opAreturn         = 176
	opReturn          = 177
	opGetstatic       = 178
	opPutstatic       = 179
	opGetfield        = 180
	opPutfield        = 181
	opInvokevirtual   = 182
	opInvokespecial   = 183
	opInvokestatic    = 184
	opInvokeinterface = 185
	opNew             = 187
	opNewarray        = 188
	opAnewarray       = 189
	opArraylength     = 190
	opAthrow          = 191
	opCheckcast       = 192
	opInstanceof      = 193
	opBreakpoint      = 202
	opImpdep1         = 254
	opImpdep2         = 255
)

// instrLengths maps opcode to static instruction length in bytes. Zero
// means unsupported. Branch opcodes keep their 3-byte length here for
// validation; the interpreter sets the pc from the offset instead.
var instrLengths = buildLengthTable()

// instrNames is the mnemonic table used by tracing and statistics.
var instrNames = buildNameTable()

func buildLengthTable() [256]int {
	var t [256]int
	one := []int{
		opNop, opAconstNull,
		opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5,
		opLconst0, opLconst1, opFconst0, opFconst1, opFconst2, opDconst0, opDconst1,
		opIload0, opIload1, opIload2, opIload3,
		opLload0, opLload1, opLload2, opLload3,
		opFload0, opFload1, opFload2, opFload3,
		opDload0, opDload1, opDload2, opDload3,
		opAload0, opAload1, opAload2, opAload3,
		opIaload, opLaload, opFaload, opDaload, opAaload, opBaload, opCaload, opSaload,
		opIstore0, opIstore1, opIstore2, opIstore3,
		opLstore0, opLstore1, opLstore2, opLstore3,
		opFstore0, opFstore1, opFstore2, opFstore3,
		opDstore0, opDstore1, opDstore2, opDstore3,
		opAstore0, opAstore1, opAstore2, opAstore3,
		opIastore, opLastore, opFastore, opDastore, opAastore, opBastore, opCastore, opSastore,
		opPop, opDup, opDupX1, opSwap,
		opIadd, opLadd, opFadd, opDadd,
		opIsub, opLsub, opFsub, opDsub,
		opImul, opLmul, opFmul, opDmul,
		opIdiv, opLdiv, opFdiv, opDdiv,
		opIrem, opLrem, opIneg, opLneg, opFneg, opDneg,
		opI2l, opI2f, opI2d, opL2i, opL2d, opF2d, opD2i, opD2l,
		opLcmp, opFcmpl, opFcmpg, opDcmpl, opDcmpg,
		opIreturn, opLreturn, opFreturn, opDreturn, opAreturn, opReturn,
		opArraylength, opAthrow,
		opBreakpoint, opImpdep1, opImpdep2,
	}
	two := []int{
		opBipush, opLdc,
		opIload, opLload, opFload, opDload, opAload,
		opIstore, opLstore, opFstore, opDstore, opAstore,
		opNewarray,
	}
	three := []int{
		opSipush, opLdc2W, opIinc,
		opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle,
		opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple,
		opIfAcmpeq, opIfAcmpne, opGoto,
		opGetstatic, opPutstatic, opGetfield, opPutfield,
		opInvokevirtual, opInvokespecial, opInvokestatic,
		opNew, opAnewarray, opCheckcast, opInstanceof,
	}
	for _, op := range one {
		t[op] = 1
	}
	for _, op := range two {
		t[op] = 2
	}
	for _, op := range three {
		t[op] = 3
	}
	t[opInvokeinterface] = 5
	return t
}

func buildNameTable() [256]string {
	var t [256]string
	for op, name := range map[int]string{
		opNop: "nop", opAconstNull: "aconst_null",
		opIconstM1: "iconst_m1", opIconst0: "iconst_0", opIconst1: "iconst_1",
		opIconst2: "iconst_2", opIconst3: "iconst_3", opIconst4: "iconst_4", opIconst5: "iconst_5",
		opLconst0: "lconst_0", opLconst1: "lconst_1",
		opFconst0: "fconst_0", opFconst1: "fconst_1", opFconst2: "fconst_2",
		opDconst0: "dconst_0", opDconst1: "dconst_1",
		opBipush: "bipush", opSipush: "sipush", opLdc: "ldc", opLdc2W: "ldc2_w",
		opIload: "iload", opLload: "lload", opFload: "fload", opDload: "dload", opAload: "aload",
		opIload0: "iload_0", opIload1: "iload_1", opIload2: "iload_2", opIload3: "iload_3",
		opLload0: "lload_0", opLload1: "lload_1", opLload2: "lload_2", opLload3: "lload_3",
		opFload0: "fload_0", opFload1: "fload_1", opFload2: "fload_2", opFload3: "fload_3",
		opDload0: "dload_0", opDload1: "dload_1", opDload2: "dload_2", opDload3: "dload_3",
		opAload0: "aload_0", opAload1: "aload_1", opAload2: "aload_2", opAload3: "aload_3",
		opIaload: "iaload", opLaload: "laload", opFaload: "faload", opDaload: "daload",
		opAaload: "aaload", opBaload: "baload", opCaload: "caload", opSaload: "saload",
		opIstore: "istore", opLstore: "lstore", opFstore: "fstore", opDstore: "dstore", opAstore: "astore",
		opIstore0: "istore_0", opIstore1: "istore_1", opIstore2: "istore_2", opIstore3: "istore_3",
		opLstore0: "lstore_0", opLstore1: "lstore_1", opLstore2: "lstore_2", opLstore3: "lstore_3",
		opFstore0: "fstore_0", opFstore1: "fstore_1", opFstore2: "fstore_2", opFstore3: "fstore_3",
		opDstore0: "dstore_0", opDstore1: "dstore_1", opDstore2: "dstore_2", opDstore3: "dstore_3",
		opAstore0: "astore_0", opAstore1: "astore_1", opAstore2: "astore_2", opAstore3: "astore_3",
		opIastore: "iastore", opLastore: "lastore", opFastore: "fastore", opDastore: "dastore",
		opAastore: "aastore", opBastore: "bastore", opCastore: "castore", opSastore: "sastore",
		opPop: "pop", opDup: "dup", opDupX1: "dup_x1", opSwap: "swap",
		opIadd: "iadd", opLadd: "ladd", opFadd: "fadd", opDadd: "dadd",
		opIsub: "isub", opLsub: "lsub", opFsub: "fsub", opDsub: "dsub",
		opImul: "imul", opLmul: "lmul", opFmul: "fmul", opDmul: "dmul",
		opIdiv: "idiv", opLdiv: "ldiv", opFdiv: "fdiv", opDdiv: "ddiv",
		opIrem: "irem", opLrem: "lrem",
		opIneg: "ineg", opLneg: "lneg", opFneg: "fneg", opDneg: "dneg",
		opIinc: "iinc",
		opI2l:  "i2l", opI2f: "i2f", opI2d: "i2d", opL2i: "l2i", opL2d: "l2d",
		opF2d: "f2d", opD2i: "d2i", opD2l: "d2l",
		opLcmp: "lcmp", opFcmpl: "fcmpl", opFcmpg: "fcmpg", opDcmpl: "dcmpl", opDcmpg: "dcmpg",
		opIfeq: "ifeq", opIfne: "ifne", opIflt: "iflt", opIfge: "ifge", opIfgt: "ifgt", opIfle: "ifle",
		opIfIcmpeq: "if_icmpeq", opIfIcmpne: "if_icmpne", opIfIcmplt: "if_icmplt",
		opIfIcmpge: "if_icmpge", opIfIcmpgt: "if_icmpgt", opIfIcmple: "if_icmple",
		opIfAcmpeq: "if_acmpeq", opIfAcmpne: "if_acmpne", opGoto: "goto",
		opIreturn: "ireturn", opLreturn: "lreturn", opFreturn: "freturn",
		opDreturn: "dreturn", opAreturn: "areturn", opReturn: "return",
		opGetstatic: "getstatic", opPutstatic: "putstatic",
		opGetfield: "getfield", opPutfield: "putfield",
		opInvokevirtual: "invokevirtual", opInvokespecial: "invokespecial",
		opInvokestatic: "invokestatic", opInvokeinterface: "invokeinterface",
		opNew: "new", opNewarray: "newarray", opAnewarray: "anewarray",
		opArraylength: "arraylength", opAthrow: "athrow",
		opCheckcast: "checkcast", opInstanceof: "instanceof",
		opBreakpoint: "breakpoint", opImpdep1: "impdep1", opImpdep2: "impdep2",
	} {
		t[op] = name
	}
	return t
}

// InstructionLength returns the static length of the opcode, or 0 when the
// opcode is unsupported.
func InstructionLength(op byte) int {
	return instrLengths[op]
}

// InstructionName returns the mnemonic for a supported opcode.
func InstructionName(op byte) string {
	if n := instrNames[op]; n != "" {
		return n
	}
	return "unknown"
}

// validateCode scans a method body with the length table, checking that the
// instruction stream exactly covers the bytes with known opcodes.
func validateCode(code []byte) error {
	pc := 0
	for pc < len(code) {
		op := code[pc]
		length := instrLengths[op]
		if length == 0 {
			return &unsupportedOpcodeError{op: op, pc: pc}
		}
		pc += length
	}
	if pc != len(code) {
		return &truncatedCodeError{pc: pc, size: len(code)}
	}
	return nil
}
