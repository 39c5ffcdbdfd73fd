package jvm

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mabhi256/gvm/internal/classfile"
	"github.com/mabhi256/gvm/internal/descriptor"
	"github.com/mabhi256/gvm/internal/heap"
)

// ClassState is the linking/initialization state machine. Derivation leaves
// a class Verified; the thread that wins the Verified->Initializing CAS runs
// <clinit>; success releases Ready, failure parks the class in Erroneous.
type ClassState uint32

const (
	StateLoaded ClassState = iota
	StateVerified
	StateInitializing
	StateReady
	StateErroneous
)

func (s ClassState) String() string {
	switch s {
	case StateLoaded:
		return "Loaded"
	case StateVerified:
		return "Verified"
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StateErroneous:
		return "Erroneous"
	default:
		return "Unknown"
	}
}

// Field is one declared field. Static fields occupy atomic slots on the
// class; instance fields occupy slots on each object.
type Field struct {
	Flags uint16
	Name  string
	Type  descriptor.FieldType
}

func (f *Field) IsStatic() bool {
	return f.Flags&classfile.AccStatic != 0
}

// Class is the runtime representation of a loaded class. Instances are
// never moved after registration, so *Class values stay valid for the
// process lifetime. Every class also owns a zero-field arena object (the
// mirror) whose header points back at the class itself, which is what
// bytecode sees when a class is used as a Java object.
type Class struct {
	Name       string
	Flags      uint16
	Super      *Class
	Interfaces []*Class
	Fields     []Field
	Methods    []Method

	// InstanceFieldCount is cumulative: the superclass chain's instance
	// fields come first in every object's slot layout, then this class's own.
	InstanceFieldCount int

	statics []atomic.Uint64

	id     uint32
	mirror heap.Ref
	state  atomic.Uint32
	// initOwner is the thread driving <clinit>, used to allow re-entrant
	// initialization from within the initializer itself.
	initOwner atomic.Pointer[Thread]

	// mu is the class header lock: it guards constant-pool entry updates.
	mu sync.Mutex
	cp []CPEntry
}

// ID returns the registry index stored in object headers.
func (c *Class) ID() uint32 { return c.id }

// Mirror returns the arena object standing in for this class in Java code.
func (c *Class) Mirror() heap.Ref { return c.mirror }

func (c *Class) State() ClassState {
	return ClassState(c.state.Load())
}

func (c *Class) setState(s ClassState) {
	c.state.Store(uint32(s))
}

func (c *Class) casState(from, to ClassState) bool {
	return c.state.CompareAndSwap(uint32(from), uint32(to))
}

func (c *Class) IsInterface() bool {
	return c.Flags&classfile.AccInterface != 0
}

// CPEntry copies out the constant-pool entry at the (1-based) index.
func (c *Class) CPEntry(index int) CPEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.cp) {
		return CPHole{}
	}
	return c.cp[index]
}

func (c *Class) setCPEntry(index int, e CPEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cp[index] = e
}

// GetStatic reads static slot i with relaxed atomicity.
func (c *Class) GetStatic(i int) uint64 {
	return c.statics[i].Load()
}

// SetStatic writes static slot i.
func (c *Class) SetStatic(i int, v uint64) {
	c.statics[i].Store(v)
}

// StaticSlotCount returns the number of static slots the class carries.
func (c *Class) StaticSlotCount() int {
	return len(c.statics)
}

// FindMethod returns the index of the declared method with the given name
// and descriptor, or -1.
func (c *Class) FindMethod(name string, desc descriptor.MethodDescriptor) int {
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.Name == name && m.Desc.Equal(desc) {
			return i
		}
	}
	return -1
}

// PackageName returns everything before the final '/' of the internal name,
// or "" for the default package.
func (c *Class) PackageName() string {
	if i := strings.LastIndexByte(c.Name, '/'); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// makeStatics allocates the zero-initialized static-slot vector.
func makeStatics(n int) []atomic.Uint64 {
	return make([]atomic.Uint64, n)
}

// IsSubclassOf walks the superclass chain and the transitive interfaces.
// A class is its own subclass for catch/instanceof purposes.
func (c *Class) IsSubclassOf(target *Class) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == target {
			return true
		}
		for _, iface := range cur.Interfaces {
			if iface.IsSubclassOf(target) {
				return true
			}
		}
	}
	return false
}
