package jvm

import (
	"fmt"
	"unicode/utf16"

	"github.com/mabhi256/gvm/internal/classfile"
	"github.com/mabhi256/gvm/internal/descriptor"
	"github.com/mabhi256/gvm/internal/heap"
)

// loadBootstrapClasses synthesizes the in-memory classes the VM needs
// before it can touch a .class file: the root object class, the bootstrap
// class loader, the string class with its helper, one array class per
// primitive, and the throwable hierarchy the interpreter raises itself.
func (vm *VM) loadBootstrapClasses() error {
	if err := vm.buildObjectClass(); err != nil {
		return err
	}
	if err := vm.buildClassLoaderClass(); err != nil {
		return err
	}
	if err := vm.buildStringClasses(); err != nil {
		return err
	}
	if err := vm.buildPrimitiveArrayClasses(); err != nil {
		return err
	}
	if err := vm.buildThrowableClasses(); err != nil {
		return err
	}
	return nil
}

func (vm *VM) registerBootstrap(c *Class) (*Class, error) {
	c.setState(StateReady)
	added, err := vm.addClass(c)
	if err != nil {
		return nil, err
	}
	if added != c {
		return nil, fmt.Errorf("bootstrap class %s registered twice", c.Name)
	}
	return added, nil
}

func (vm *VM) buildObjectClass() error {
	objDesc := descriptor.Object("java/lang/Object")
	strDesc := descriptor.Object("java/lang/String")

	c := &Class{
		Name: "java/lang/Object",
		Methods: []Method{
			{
				Name: "<init>",
				Desc: voidDescriptor(),
				Code: &Code{MaxLocals: 1, Bytes: []byte{opReturn}},
			},
			{
				Flags: classfile.AccPublic,
				Name:  "equals",
				Desc: descriptor.MethodDescriptor{
					Params: []descriptor.FieldType{objDesc},
					Ret:    descriptor.Base('Z'),
				},
				// reference equality
				Code: &Code{
					MaxStack:  2,
					MaxLocals: 2,
					Bytes: []byte{
						opAload0,
						opAload1,
						opIfAcmpne, 0, 5,
						opIconst1,
						opIreturn,
						opIconst0,
						opIreturn,
					},
				},
			},
			{
				Flags:  classfile.AccPublic,
				Name:   "toString",
				Desc:   descriptor.MethodDescriptor{Ret: strDesc},
				Native: nativeObjectToString,
			},
		},
	}

	added, err := vm.registerBootstrap(c)
	if err != nil {
		return err
	}
	vm.ObjectClass = added
	return nil
}

func nativeObjectToString(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	this := refFromWord(args[0])
	if this.IsNull() {
		return 0, false, t.MakeThrowable("java/lang/NullPointerException", "")
	}
	name := "<unknown>"
	if c := t.vm.ClassOf(this); c != nil {
		name = c.Name
	}
	ref, err := t.vm.Strings.Add(fmt.Sprintf("%s@%d", name, args[0]))
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/Error", err.Error())
	}
	return uint64(ref), true, 0
}

func (vm *VM) buildClassLoaderClass() error {
	c := &Class{
		Name:  "java/lang/ClassLoader",
		Super: vm.ObjectClass,
		Methods: []Method{
			{
				Name:   "loadClass",
				Desc:   loadClassDescriptor(),
				Native: nativeClassLoaderLoadClass,
			},
		},
	}

	added, err := vm.registerBootstrap(c)
	if err != nil {
		return err
	}
	vm.ClassLoaderClass = added
	return nil
}

// nativeClassLoaderLoadClass is the bootstrap loader entry point: args[0]
// is the loader (null for bootstrap), args[1] the class-name string. It
// returns the loaded class's mirror object.
func nativeClassLoaderLoadClass(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	nameRef := refFromWord(args[1])
	if nameRef.IsNull() {
		return 0, false, t.MakeThrowable("java/lang/NullPointerException", "")
	}
	name := t.vm.Strings.Get(nameRef)

	c, err := t.vm.LoadClass(name)
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/Exception", err.Error())
	}
	return uint64(c.Mirror()), true, 0
}

func (vm *VM) buildStringClasses() error {
	objDesc := descriptor.Object("java/lang/Object")
	strDesc := descriptor.Object("java/lang/String")

	stringEqualsDesc := descriptor.MethodDescriptor{
		Params: []descriptor.FieldType{strDesc, objDesc},
		Ret:    descriptor.Base('Z'),
	}

	util := &Class{
		Name:  "java/lang/StringUtil",
		Super: vm.ObjectClass,
		Methods: []Method{
			{
				Flags:  classfile.AccStatic,
				Name:   "stringEquals",
				Desc:   stringEqualsDesc,
				Native: nativeStringUtilEquals,
			},
		},
	}
	if _, err := vm.registerBootstrap(util); err != nil {
		return err
	}

	str := &Class{
		Name:  "java/lang/String",
		Super: vm.ObjectClass,
		Fields: []Field{
			{Name: "length", Type: descriptor.Base('J')},
			{Name: "index", Type: descriptor.Base('J')},
		},
		InstanceFieldCount: 2,
		cp: []CPEntry{
			CPHole{},
			CPUnresolvedClass{Name: "java/lang/String"},
			CPUnresolvedField{ClassIndex: 1, Name: "length", Type: descriptor.Base('J')},
			CPUnresolvedClass{Name: "java/lang/StringUtil"},
			CPUnresolvedMethod{ClassIndex: 3, Name: "stringEquals", Desc: stringEqualsDesc},
		},
		Methods: []Method{
			{
				Flags: classfile.AccPublic,
				Name:  "concat",
				Desc: descriptor.MethodDescriptor{
					Params: []descriptor.FieldType{strDesc},
					Ret:    strDesc,
				},
				Native: nativeStringConcat,
			},
			{
				Flags: classfile.AccPublic,
				Name:  "length",
				Desc:  descriptor.MethodDescriptor{Ret: descriptor.Base('J')},
				Code: &Code{
					MaxStack:  1,
					MaxLocals: 1,
					Bytes: []byte{
						opAload0,
						opGetfield, 0, 2,
						opLreturn,
					},
				},
			},
			{
				Flags: classfile.AccPublic,
				Name:  "charAt",
				Desc: descriptor.MethodDescriptor{
					Params: []descriptor.FieldType{descriptor.Base('I')},
					Ret:    descriptor.Base('C'),
				},
				Native: nativeStringCharAt,
			},
			{
				Flags: classfile.AccPublic,
				Name:  "equals",
				Desc: descriptor.MethodDescriptor{
					Params: []descriptor.FieldType{objDesc},
					Ret:    descriptor.Base('Z'),
				},
				Code: &Code{
					MaxStack:  2,
					MaxLocals: 2,
					Bytes: []byte{
						opAload0,
						opAload1,
						opInvokestatic, 0, 4,
						opIreturn,
					},
				},
			},
		},
	}

	added, err := vm.registerBootstrap(str)
	if err != nil {
		return err
	}
	vm.StringClass = added
	vm.Strings.SetStringClass(added.ID())
	return nil
}

func nativeStringConcat(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	a := refFromWord(args[0])
	b := refFromWord(args[1])
	if a.IsNull() || b.IsNull() {
		return 0, false, t.MakeThrowable("java/lang/NullPointerException", "")
	}
	if t.vm.Arena.GetField(b, 0) == 0 {
		return uint64(a), true, 0
	}
	res, err := t.vm.Strings.Add(t.vm.Strings.Get(a) + t.vm.Strings.Get(b))
	if err != nil {
		return 0, false, t.MakeThrowable("java/lang/Error", err.Error())
	}
	return uint64(res), true, 0
}

func nativeStringCharAt(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	this := refFromWord(args[0])
	if this.IsNull() {
		return 0, false, t.MakeThrowable("java/lang/NullPointerException", "")
	}
	index := int(i32(args[1]))

	units := utf16.Encode([]rune(t.vm.Strings.Get(this)))
	if index < 0 || index >= len(units) {
		return 0, false, t.MakeThrowable("java/lang/ArrayIndexOutOfBoundsException",
			fmt.Sprintf("Index %d out of bounds for length %d", index, len(units)))
	}
	return uint64(units[index]), true, 0
}

func nativeStringUtilEquals(t *Thread, args []uint64) (uint64, bool, heap.Ref) {
	a := refFromWord(args[0])
	b := refFromWord(args[1])
	if a.IsNull() || b.IsNull() {
		return 0, true, 0
	}
	if t.vm.ClassOf(b) != t.vm.StringClass {
		return 0, true, 0
	}
	if t.vm.Strings.Get(a) == t.vm.Strings.Get(b) {
		return 1, true, 0
	}
	return 0, true, 0
}

func (vm *VM) buildPrimitiveArrayClasses() error {
	for _, name := range []string{"[B", "[C", "[F", "[D", "[Z", "[S", "[I", "[J"} {
		c := &Class{
			Name:  name,
			Super: vm.ObjectClass,
		}
		if _, err := vm.registerBootstrap(c); err != nil {
			return err
		}
	}
	return nil
}

// buildThrowableClasses pre-loads the exception classes the interpreter
// constructs itself, so that throwing inside class loading can never
// recurse into class loading.
func (vm *VM) buildThrowableClasses() error {
	strDesc := descriptor.Object("java/lang/String")
	steDesc := descriptor.Object("java/lang/StackTraceElement")

	ste := &Class{
		Name:  "java/lang/StackTraceElement",
		Super: vm.ObjectClass,
		Fields: []Field{
			{Name: "declaringClass", Type: strDesc},
			{Name: "methodName", Type: strDesc},
		},
		InstanceFieldCount: 2,
	}
	if _, err := vm.registerBootstrap(ste); err != nil {
		return err
	}

	noArgInit := func() Method {
		return Method{
			Flags: classfile.AccPublic,
			Name:  "<init>",
			Desc:  voidDescriptor(),
			Code:  &Code{MaxLocals: 1, Bytes: []byte{opReturn}},
		}
	}

	throwable := &Class{
		Name:  "java/lang/Throwable",
		Super: vm.ObjectClass,
		Fields: []Field{
			{Name: "stackTrace", Type: descriptor.Array(steDesc)},
			{Name: "message", Type: strDesc},
		},
		InstanceFieldCount: 2,
		Methods:            []Method{noArgInit()},
	}
	parent, err := vm.registerBootstrap(throwable)
	if err != nil {
		return err
	}

	hierarchy := []struct {
		name  string
		super string
	}{
		{"java/lang/Exception", "java/lang/Throwable"},
		{"java/lang/Error", "java/lang/Throwable"},
		{"java/lang/RuntimeException", "java/lang/Exception"},
		{"java/lang/NullPointerException", "java/lang/RuntimeException"},
		{"java/lang/ArrayIndexOutOfBoundsException", "java/lang/RuntimeException"},
		{"java/lang/ArithmeticException", "java/lang/RuntimeException"},
		{"java/lang/NegativeArraySizeException", "java/lang/RuntimeException"},
		{"java/lang/ClassCastException", "java/lang/RuntimeException"},
		{"java/lang/NumberFormatException", "java/lang/RuntimeException"},
	}
	for _, h := range hierarchy {
		parent = vm.FindLoadedClass(h.super)
		if parent == nil {
			return fmt.Errorf("throwable hierarchy out of order: %s before %s", h.name, h.super)
		}
		c := &Class{
			Name:               h.name,
			Super:              parent,
			InstanceFieldCount: parent.InstanceFieldCount,
			Methods:            []Method{noArgInit()},
		}
		if _, err := vm.registerBootstrap(c); err != nil {
			return err
		}
	}
	return nil
}
