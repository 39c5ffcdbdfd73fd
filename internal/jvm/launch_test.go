package jvm

import (
	"errors"
	"strings"
	"testing"

	"github.com/mabhi256/gvm/internal/classfile"
)

// mainClassImage assembles a minimal runnable class with a public static
// main([Ljava/lang/String;)V holding the given code.
func mainClassImage(t *testing.T, name string, maxStack, maxLocals int, code []byte) []byte {
	t.Helper()
	w := &classImage{}
	w.u4(classfile.Magic)
	w.u2(0)
	w.u2(61)

	w.u2(8)
	w.utf8(name)             // 1
	w.u1(classfile.TagClass) // 2
	w.u2(1)
	w.utf8("java/lang/Object") // 3
	w.u1(classfile.TagClass)   // 4
	w.u2(3)
	w.utf8("main")                   // 5
	w.utf8("([Ljava/lang/String;)V") // 6
	w.utf8("Code")                   // 7

	w.u2(classfile.AccPublic | classfile.AccSuper)
	w.u2(2)
	w.u2(4)
	w.u2(0)
	w.u2(0)

	w.u2(1)
	w.u2(classfile.AccPublic | classfile.AccStatic)
	w.u2(5)
	w.u2(6)
	w.u2(1)
	w.u2(7)
	body := w.code(maxStack, maxLocals, code)
	w.u4(uint32(len(body)))
	w.buf = append(w.buf, body...)

	w.u2(0)
	return w.buf
}

func TestRunMain(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// main stores the argument array length and returns
	writeClassFile(t, root, "Main", mainClassImage(t, "Main", 1, 2, []byte{
		opAload0,
		opArraylength,
		opIstore1,
		opReturn,
	}))

	if err := vm.RunMain("Main", []string{"a", "b"}); err != nil {
		t.Fatalf("RunMain: %v", err)
	}
}

func TestRunMainDottedName(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	writeClassFile(t, root, "com/example/App",
		mainClassImage(t, "com/example/App", 1, 1, []byte{opReturn}))

	if err := vm.RunMain("com.example.App", nil); err != nil {
		t.Fatalf("RunMain with dotted name: %v", err)
	}
}

func TestRunMainUncaughtException(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	writeClassFile(t, root, "Boom", mainClassImage(t, "Boom", 2, 1, []byte{
		opIconst1,
		opIconst0,
		opIdiv,
		opPop,
		opReturn,
	}))

	err = vm.RunMain("Boom", nil)
	if err == nil {
		t.Fatal("RunMain of a throwing main succeeded")
	}
	var uncaught *UncaughtException
	if !errors.As(err, &uncaught) {
		t.Fatalf("got %T, want *UncaughtException", err)
	}
	if !strings.HasPrefix(uncaught.Trace, "Exception java/lang/ArithmeticException") {
		t.Errorf("trace header:\n%s", uncaught.Trace)
	}
	if !strings.Contains(uncaught.Trace, "at Boom.main") {
		t.Errorf("trace frames:\n%s", uncaught.Trace)
	}
}

func TestRunMainMissingClass(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.RunMain("NoSuch", nil); err == nil {
		t.Fatal("RunMain of a missing class succeeded")
	}
}

func TestRunMainArgsArray(t *testing.T) {
	vm := newTestVM(t)

	ref, err := vm.buildArgsArray([]string{"first", "second"})
	if err != nil {
		t.Fatalf("buildArgsArray: %v", err)
	}
	arr := refFromWord(ref)
	if got := vm.Arena.ArrayLength(arr); got != 2 {
		t.Fatalf("args length: got %d", got)
	}
	w, _ := vm.Arena.GetElem(arr, 1)
	if got := vm.Strings.Get(refFromWord(w)); got != "second" {
		t.Errorf("args[1]: got %q", got)
	}
	if vm.ClassOf(arr).Name != "[java/lang/String" {
		t.Errorf("args array class: got %q", vm.ClassOf(arr).Name)
	}
}
