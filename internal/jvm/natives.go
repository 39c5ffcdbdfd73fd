package jvm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mabhi256/gvm/internal/heap"
)

// nativeKey identifies a native method binding.
type nativeKey struct {
	Class string
	Name  string
	Desc  string
}

// buildNativeRegistry populates the (class, name, descriptor) -> function
// table once at VM init. Classes loaded from the classpath that declare
// ACC_NATIVE methods bind against this table; a missing entry is a
// load-time error.
func buildNativeRegistry() map[nativeKey]NativeFunc {
	reg := make(map[nativeKey]NativeFunc)

	reg[nativeKey{"java/lang/System", "registerNatives", "()V"}] = nativeSystemRegisterNatives
	reg[nativeKey{"java/lang/Math", "sqrt", "(D)D"}] = nativeMathSqrt
	reg[nativeKey{"java/lang/Integer", "parseInt", "(Ljava/lang/String;)I"}] = nativeIntegerParseInt
	reg[nativeKey{"java/lang/Integer", "toString", "(I)Ljava/lang/String;"}] = nativeIntegerToString
	reg[nativeKey{"java/lang/Long", "parseLong", "(Ljava/lang/String;)J"}] = nativeLongParseLong

	for _, name := range []string{"print", "println"} {
		ln := name == "println"
		reg[nativeKey{"java/io/PrintStream", name, "(C)V"}] = makePrintChar(ln)
		reg[nativeKey{"java/io/PrintStream", name, "(I)V"}] = makePrintInt(ln)
		reg[nativeKey{"java/io/PrintStream", name, "(J)V"}] = makePrintLong(ln)
		reg[nativeKey{"java/io/PrintStream", name, "(D)V"}] = makePrintDouble(ln)
		reg[nativeKey{"java/io/PrintStream", name, "(Ljava/lang/String;)V"}] = makePrintString(ln)
	}
	reg[nativeKey{"java/io/PrintStream", "println", "()V"}] = func(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
		fmt.Fprintln(t.vm.Stdout)
		return 0, false, 0
	}

	return reg
}

// nativeSystemRegisterNatives sets up System.out: it loads PrintStream,
// allocates one, and stores the handle into the calling class's first
// static slot.
func nativeSystemRegisterNatives(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	ps, err := t.vm.LoadClass("java/io/PrintStream")
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/Error", err.Error())
	}
	obj, err := t.vm.Arena.NewObject(ps.ID(), ps.InstanceFieldCount)
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/Error", err.Error())
	}
	if c := t.CurrentClass(); c != nil && c.StaticSlotCount() > 0 {
		c.SetStatic(0, uint64(obj))
	}
	return 0, false, 0
}

func nativeMathSqrt(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	return uf64(math.Sqrt(f64(args[0]))), true, 0
}

func nativeIntegerParseInt(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	s := refFromWord(args[0])
	if s.IsNull() {
		return 0, false, t.MakeThrowable("java/lang/NullPointerException", "")
	}
	v, err := strconv.ParseInt(t.vm.Strings.Get(s), 10, 32)
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/NumberFormatException",
			fmt.Sprintf("For input string: %q", t.vm.Strings.Get(s)))
	}
	return u32(int32(v)), true, 0
}

func nativeIntegerToString(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	ref, err := t.vm.Strings.Add(strconv.FormatInt(int64(i32(args[0])), 10))
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/Error", err.Error())
	}
	return uint64(ref), true, 0
}

func nativeLongParseLong(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	s := refFromWord(args[0])
	if s.IsNull() {
		return 0, false, t.MakeThrowable("java/lang/NullPointerException", "")
	}
	v, err := strconv.ParseInt(t.vm.Strings.Get(s), 10, 64)
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/NumberFormatException",
			fmt.Sprintf("For input string: %q", t.vm.Strings.Get(s)))
	}
	return u64(v), true, 0
}

func makePrintChar(newline bool) NativeFunc {
	return func(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
		writeOut(t, string(rune(uint32(args[1]))), newline)
		return 0, false, 0
	}
}

func makePrintInt(newline bool) NativeFunc {
	return func(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
		writeOut(t, strconv.FormatInt(int64(i32(args[1])), 10), newline)
		return 0, false, 0
	}
}

func makePrintLong(newline bool) NativeFunc {
	return func(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
		writeOut(t, strconv.FormatInt(i64(args[1]), 10), newline)
		return 0, false, 0
	}
}

func makePrintDouble(newline bool) NativeFunc {
	return func(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
		writeOut(t, formatDouble(f64(args[1])), newline)
		return 0, false, 0
	}
}

func makePrintString(newline bool) NativeFunc {
	return func(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
		s := refFromWord(args[1])
		if s.IsNull() {
			writeOut(t, "null", newline)
		} else {
			writeOut(t, t.vm.Strings.Get(s), newline)
		}
		return 0, false, 0
	}
}

func writeOut(t *Thread, s string, newline bool) {
	if newline {
		fmt.Fprintln(t.vm.Stdout, s)
	} else {
		fmt.Fprint(t.vm.Stdout, s)
	}
}

// formatDouble matches Java's Double.toString for the common cases: an
// integral finite value prints with a trailing ".0".
func formatDouble(d float64) string {
	if d == math.Trunc(d) && !math.IsInf(d, 0) && !math.IsNaN(d) {
		return strconv.FormatFloat(d, 'f', 1, 64)
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}
