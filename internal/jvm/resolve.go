package jvm

import (
	"fmt"
	"time"

	"github.com/mabhi256/gvm/internal/descriptor"
)

// Resolve lazily turns the constant-pool entry at index into its resolved
// form and returns it. Resolution is monotone: once an entry is resolved it
// never changes, and racing resolvers commit the same value because lookup
// is deterministic. The commit itself happens under the class header lock.
func (t *Thread) Resolve(c *Class, index int) (CPEntry, error) {
	entry := c.CPEntry(index)

	switch e := entry.(type) {
	case CPUnresolvedClass:
		target, err := t.loadClassThroughLoader(e.Name)
		if err != nil {
			return nil, err
		}
		resolved := CPResolvedClass{Class: target}
		c.setCPEntry(index, resolved)
		return resolved, nil

	case CPUnresolvedField:
		target, err := t.resolveClassEntry(c, int(e.ClassIndex))
		if err != nil {
			return nil, err
		}

		slot, instance, found := findFieldSlot(target, e.Name, e.Type)
		if !found {
			return nil, fmt.Errorf("field %s:%s not found in %s", e.Name, e.Type, target.Name)
		}
		resolved := CPResolvedField{Class: target, Instance: instance, Slot: slot}
		c.setCPEntry(index, resolved)

		if err := t.InitializeClass(target); err != nil {
			return nil, err
		}
		return resolved, nil

	case CPUnresolvedMethod:
		target, err := t.resolveClassEntry(c, int(e.ClassIndex))
		if err != nil {
			return nil, err
		}

		var mc *Class
		var mi int
		if e.Interface {
			if !target.IsInterface() {
				return nil, fmt.Errorf("interface method ref %s.%s on non-interface", target.Name, e.Name)
			}
			mc, mi = t.lookupInterfaceMethod(target, e.Name, e.Desc)
		} else {
			if target.IsInterface() {
				return nil, fmt.Errorf("method ref %s.%s on interface", target.Name, e.Name)
			}
			mc, mi = lookupMethod(target, e.Name, e.Desc)
		}
		if mc == nil {
			return nil, fmt.Errorf("method %s%s not found in %s", e.Name, e.Desc, target.Name)
		}
		resolved := CPResolvedMethod{Class: mc, Index: mi}
		c.setCPEntry(index, resolved)

		if err := t.InitializeClass(mc); err != nil {
			return nil, err
		}
		return resolved, nil

	default:
		return entry, nil
	}
}

// resolveClassEntry resolves index and requires the result to be a class
// reference.
func (t *Thread) resolveClassEntry(c *Class, index int) (*Class, error) {
	entry, err := t.Resolve(c, index)
	if err != nil {
		return nil, err
	}
	ref, ok := entry.(CPResolvedClass)
	if !ok {
		return nil, fmt.Errorf("constant %d of %s is not a class reference", index, c.Name)
	}
	return ref.Class, nil
}

// findFieldSlot searches the declared fields in declaration order and
// computes the slot index: statics count preceding static declarations,
// instance fields start after the superclass chain's slots.
func findFieldSlot(c *Class, name string, ftype descriptor.FieldType) (int, bool, bool) {
	staticIdx, instanceIdx := 0, 0
	for i := range c.Fields {
		f := &c.Fields[i]
		match := f.Name == name && f.Type.Equal(ftype)
		if f.IsStatic() {
			if match {
				return staticIdx, false, true
			}
			staticIdx++
		} else {
			if match {
				base := 0
				if c.Super != nil {
					base = c.Super.InstanceFieldCount
				}
				return base + instanceIdx, true, true
			}
			instanceIdx++
		}
	}
	return 0, false, false
}

// lookupMethod finds name+descriptor in the class or its superclass chain.
func lookupMethod(c *Class, name string, desc descriptor.MethodDescriptor) (*Class, int) {
	for cur := c; cur != nil; cur = cur.Super {
		if i := cur.FindMethod(name, desc); i >= 0 {
			return cur, i
		}
	}
	return nil, -1
}

// lookupInterfaceMethod checks the interface's own methods, then the root
// object class's public non-static ones.
func (t *Thread) lookupInterfaceMethod(iface *Class, name string, desc descriptor.MethodDescriptor) (*Class, int) {
	if i := iface.FindMethod(name, desc); i >= 0 {
		return iface, i
	}
	obj := t.vm.ObjectClass
	if i := obj.FindMethod(name, desc); i >= 0 {
		m := &obj.Methods[i]
		if m.IsPublic() && !m.IsStatic() {
			return obj, i
		}
	}
	return nil, -1
}

// loadClassThroughLoader drives loading through the bootstrap class
// loader's native loadClass method, the way resolution does in bytecode.
func (t *Thread) loadClassThroughLoader(name string) (*Class, error) {
	nameRef, err := t.vm.Strings.Add(name)
	if err != nil {
		return nil, err
	}
	loader := t.vm.ClassLoaderClass
	idx := loader.FindMethod("loadClass", loadClassDescriptor())
	if idx < 0 {
		return nil, fmt.Errorf("bootstrap class loader has no loadClass method")
	}
	ret, hasRet, err := t.invoke(loader, idx, []uint64{0, uint64(nameRef)})
	if err != nil {
		return nil, err
	}
	if !hasRet {
		return nil, fmt.Errorf("loadClass returned no value for %s", name)
	}
	mirror := refFromWord(ret)
	target := t.vm.ClassOf(mirror)
	if target == nil {
		return nil, fmt.Errorf("loadClass returned an unknown class handle for %s", name)
	}
	return target, nil
}

// InitializeClass drives the class state machine up to Ready, running
// <clinit> on this thread when it wins the Verified->Initializing CAS.
// Re-entry from within the initializer returns immediately; a concurrent
// initializer on another thread is waited out; a failed class stays
// Erroneous and every later attempt fails fast.
func (t *Thread) InitializeClass(c *Class) error {
	for {
		switch c.State() {
		case StateReady:
			return nil
		case StateErroneous:
			return fmt.Errorf("class %s failed initialization", c.Name)
		case StateInitializing:
			if c.initOwner.Load() == t {
				return nil
			}
			time.Sleep(time.Millisecond)
		case StateVerified:
			if c.casState(StateVerified, StateInitializing) {
				return t.runInitializer(c)
			}
		default:
			return fmt.Errorf("class %s in unexpected state %s at initialization", c.Name, c.State())
		}
	}
}

func (t *Thread) runInitializer(c *Class) error {
	t.vm.tracef("initializing %s", c.Name)
	c.initOwner.Store(t)
	defer c.initOwner.Store(nil)

	fail := func(err error) error {
		c.setState(StateErroneous)
		return err
	}

	if c.Super != nil {
		if err := t.InitializeClass(c.Super); err != nil {
			return fail(err)
		}
	}
	for _, iface := range c.Interfaces {
		if declaresConcreteInstanceMethod(iface) {
			if err := t.InitializeClass(iface); err != nil {
				return fail(err)
			}
		}
	}

	if idx := c.FindMethod("<clinit>", voidDescriptor()); idx >= 0 {
		m := &c.Methods[idx]
		if m.IsStatic() {
			if _, _, err := t.invoke(c, idx, nil); err != nil {
				// a throwing initializer surfaces as a synthetic Error
				if _, ok := err.(*javaException); ok {
					err = t.ThrowMessage("java/lang/Error",
						fmt.Sprintf("initialization of %s failed", c.Name))
				}
				return fail(err)
			}
		}
	}

	c.setState(StateReady)
	return nil
}

func declaresConcreteInstanceMethod(iface *Class) bool {
	for i := range iface.Methods {
		m := &iface.Methods[i]
		if !m.IsAbstract() && !m.IsStatic() {
			return true
		}
	}
	return false
}
