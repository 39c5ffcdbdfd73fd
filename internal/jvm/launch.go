package jvm

import (
	"fmt"
	"strings"

	"github.com/mabhi256/gvm/internal/classfile"
	"github.com/mabhi256/gvm/internal/descriptor"
)

// mainDescriptor is public static void main(String[]).
func mainDescriptor() descriptor.MethodDescriptor {
	return descriptor.MethodDescriptor{
		Params: []descriptor.FieldType{
			descriptor.Array(descriptor.Object("java/lang/String")),
		},
		Ret: descriptor.Base('V'),
	}
}

// RunMain loads the main class through the bootstrap class loader,
// initializes it, builds the String[] argument array and runs main on a
// fresh thread. An uncaught exception comes back as *UncaughtException
// carrying the formatted stack trace.
func (vm *VM) RunMain(mainClass string, javaArgs []string) error {
	name := strings.ReplaceAll(mainClass, ".", "/")
	nameRef, err := vm.Strings.Intern(name)
	if err != nil {
		return err
	}

	loader := NewThread(vm)
	idx := vm.ClassLoaderClass.FindMethod("loadClass", loadClassDescriptor())
	if idx < 0 {
		return fmt.Errorf("bootstrap class loader has no loadClass method")
	}
	loader.Start(vm.ClassLoaderClass, idx, []uint64{0, uint64(nameRef)})
	if loader.Status != StatusFinished || !loader.HasRes {
		return fmt.Errorf("could not load main class %s: %s", name, loader.FailMsg)
	}
	c := vm.ClassOf(refFromWord(loader.Result))
	if c == nil {
		return fmt.Errorf("class loader returned an unknown handle for %s", name)
	}

	init := NewThread(vm)
	if err := init.InitializeClass(c); err != nil {
		if je, ok := err.(*javaException); ok {
			return &UncaughtException{Trace: init.FormatTrace(je.ref)}
		}
		return fmt.Errorf("initializing %s: %w", name, err)
	}

	mainIdx := c.FindMethod("main", mainDescriptor())
	if mainIdx < 0 {
		return fmt.Errorf("class %s has no main([Ljava/lang/String;)V method", name)
	}
	m := &c.Methods[mainIdx]
	if !m.IsStatic() || m.Flags&classfile.AccPublic == 0 {
		return fmt.Errorf("main method of %s is not public static", name)
	}

	argsRef, err := vm.buildArgsArray(javaArgs)
	if err != nil {
		return err
	}

	t := NewThread(vm)
	t.Start(c, mainIdx, []uint64{uint64(argsRef)})
	if t.Status == StatusFailed {
		return &UncaughtException{Trace: t.FailMsg}
	}
	return nil
}

// buildArgsArray allocates the String[] passed to main.
func (vm *VM) buildArgsArray(javaArgs []string) (uint64, error) {
	arrClass, err := vm.LoadClass("[java/lang/String")
	if err != nil {
		return 0, err
	}
	arr, err := vm.Arena.NewArray(arrClass.ID(), len(javaArgs))
	if err != nil {
		return 0, err
	}
	for i, arg := range javaArgs {
		ref, err := vm.Strings.Add(arg)
		if err != nil {
			return 0, err
		}
		vm.Arena.SetElem(arr, i, uint64(ref))
	}
	return uint64(arr), nil
}
