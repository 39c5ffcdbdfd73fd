package jvm

import (
	"github.com/mabhi256/gvm/internal/classfile"
	"github.com/mabhi256/gvm/internal/descriptor"
	"github.com/mabhi256/gvm/internal/heap"
)

// NativeFunc is the single shared signature of every registered native
// method. args holds the popped argument words (receiver first for instance
// methods). A non-null exc handle reports a thrown Java exception; hasRet
// distinguishes void from a zero return value.
type NativeFunc func(t *Thread, args []uint64) (ret uint64, hasRet bool, exc heap.Ref)

// Method is one declared method. Exactly one of Code and Native is set for
// concrete methods; both are nil for abstract ones.
type Method struct {
	Flags  uint16
	Name   string
	Desc   descriptor.MethodDescriptor
	Code   *Code
	Native NativeFunc
}

// Code is a lowered Code attribute.
type Code struct {
	MaxStack  int
	MaxLocals int
	Bytes     []byte
	Handlers  []ExceptionHandler
}

// ExceptionHandler covers [StartPC, EndPC). A nil CatchType is the
// catch-all used for finally blocks.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType *Class
}

func (m *Method) IsStatic() bool    { return m.Flags&classfile.AccStatic != 0 }
func (m *Method) IsNative() bool    { return m.Flags&classfile.AccNative != 0 }
func (m *Method) IsAbstract() bool  { return m.Flags&classfile.AccAbstract != 0 }
func (m *Method) IsPublic() bool    { return m.Flags&classfile.AccPublic != 0 }
func (m *Method) IsPrivate() bool   { return m.Flags&classfile.AccPrivate != 0 }
func (m *Method) IsProtected() bool { return m.Flags&classfile.AccProtected != 0 }

func (m *Method) IsPackagePrivate() bool {
	return m.Flags&(classfile.AccPublic|classfile.AccPrivate|classfile.AccProtected) == 0
}

// ArgWords is the number of stack words the parameters occupy. Longs and
// doubles take a single word in this machine, so it equals the parameter
// count; the receiver of an instance method adds one more at the call site.
func (m *Method) ArgWords() int {
	return len(m.Desc.Params)
}

// ReturnsValue reports whether an invocation pushes a result.
func (m *Method) ReturnsValue() bool {
	return !(m.Desc.Ret.Kind == descriptor.KindBase && m.Desc.Ret.Base == 'V')
}
