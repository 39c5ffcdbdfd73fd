package jvm

import (
	"github.com/mabhi256/gvm/internal/descriptor"
	"github.com/mabhi256/gvm/internal/heap"
)

// CPEntry is one lowered constant-pool entry. The runtime pool mirrors the
// file pool's 1-based indexing (slot 0 and the slot after every long/double
// hold a CPHole). Entries only ever transition from an Unresolved variant to
// the matching Resolved one; writes happen under the owning class's lock.
type CPEntry interface {
	isCPEntry()
}

// CPHole marks slot 0, the second slot of a long/double, and every entry
// kind the interpreter never consults.
type CPHole struct{}

// CPValue is a numeric constant. 32-bit values are zero-extended; doubles
// are stored by bit reinterpretation.
type CPValue struct {
	Bits uint64
}

// CPString is an already-interned string literal.
type CPString struct {
	Ref heap.Ref
}

type CPUnresolvedClass struct {
	Name string
}

type CPResolvedClass struct {
	Class *Class
}

type CPUnresolvedField struct {
	ClassIndex uint16
	Name       string
	Type       descriptor.FieldType
}

type CPResolvedField struct {
	Class    *Class
	Instance bool
	Slot     int
}

type CPUnresolvedMethod struct {
	ClassIndex uint16
	Name       string
	Desc       descriptor.MethodDescriptor
	Interface  bool
}

type CPResolvedMethod struct {
	Class *Class
	Index int
}

func (CPHole) isCPEntry()             {}
func (CPValue) isCPEntry()            {}
func (CPString) isCPEntry()           {}
func (CPUnresolvedClass) isCPEntry()  {}
func (CPResolvedClass) isCPEntry()    {}
func (CPUnresolvedField) isCPEntry()  {}
func (CPResolvedField) isCPEntry()    {}
func (CPUnresolvedMethod) isCPEntry() {}
func (CPResolvedMethod) isCPEntry()   {}
