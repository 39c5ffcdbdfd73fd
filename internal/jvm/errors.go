package jvm

import (
	"fmt"

	"github.com/mabhi256/gvm/internal/heap"
)

// javaException wraps an in-flight Java throwable while it unwinds through
// the interpreter. Everything else surfacing as error is a VM-level failure
// that aborts the thread.
type javaException struct {
	ref heap.Ref
}

func (e *javaException) Error() string {
	return fmt.Sprintf("java exception (handle %d)", e.ref)
}

type unsupportedOpcodeError struct {
	op byte
	pc int
}

func (e *unsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode %d at pc=%d", e.op, e.pc)
}

type truncatedCodeError struct {
	pc   int
	size int
}

func (e *truncatedCodeError) Error() string {
	return fmt.Sprintf("instruction at pc=%d runs past the %d-byte code array", e.pc, e.size)
}

// UncaughtException is returned by the launcher when the main thread dies
// with an exception nobody caught. Trace carries the formatted stack trace.
type UncaughtException struct {
	Trace string
}

func (e *UncaughtException) Error() string {
	return e.Trace
}
