package jvm

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mabhi256/gvm/internal/classfile"
)

// classImage builds synthetic class-file bytes for loader tests.
type classImage struct {
	buf []byte
}

func (w *classImage) u1(v uint8)  { w.buf = append(w.buf, v) }
func (w *classImage) u2(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *classImage) u4(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *classImage) utf8(s string) {
	w.u1(classfile.TagUtf8)
	w.u2(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *classImage) code(maxStack, maxLocals int, code []byte) []byte {
	var c classImage
	c.u2(uint16(maxStack))
	c.u2(uint16(maxLocals))
	c.u4(uint32(len(code)))
	c.buf = append(c.buf, code...)
	c.u2(0) // exception table
	c.u2(0) // attributes
	return c.buf
}

/*
calcClass assembles this class:

	public class Calc {
	    static int counter;
	    int x;
	    static int add(int, int) { return a + b; }
	    static { counter = 7; }
	}
*/
func calcClass(t *testing.T, badOpcode bool) []byte {
	t.Helper()
	w := &classImage{}
	w.u4(classfile.Magic)
	w.u2(0)
	w.u2(61)

	w.u2(15)                 // entries 1..14
	w.utf8("Calc")           // 1
	w.u1(classfile.TagClass) // 2
	w.u2(1)
	w.utf8("java/lang/Object") // 3
	w.u1(classfile.TagClass)   // 4
	w.u2(3)
	w.utf8("add")                  // 5
	w.utf8("(II)I")                // 6
	w.utf8("Code")                 // 7
	w.utf8("counter")              // 8
	w.utf8("I")                    // 9
	w.utf8("x")                    // 10
	w.utf8("<clinit>")             // 11
	w.utf8("()V")                  // 12
	w.u1(classfile.TagNameAndType) // 13
	w.u2(8)
	w.u2(9)
	w.u1(classfile.TagFieldref) // 14
	w.u2(2)
	w.u2(13)

	w.u2(classfile.AccPublic | classfile.AccSuper)
	w.u2(2) // this
	w.u2(4) // super
	w.u2(0) // interfaces

	w.u2(2) // fields
	w.u2(classfile.AccStatic)
	w.u2(8)
	w.u2(9)
	w.u2(0)
	w.u2(0) // package-private instance field x
	w.u2(10)
	w.u2(9)
	w.u2(0)

	addCode := []byte{opIload0, opIload1, opIadd, opIreturn}
	if badOpcode {
		addCode = []byte{opIload0, 0xC5, 0, 1, 2}
	}
	clinitCode := []byte{opBipush, 7, opPutstatic, 0, 14, opReturn}

	w.u2(2) // methods
	w.u2(classfile.AccPublic | classfile.AccStatic)
	w.u2(5)
	w.u2(6)
	w.u2(1)
	w.u2(7)
	body := w.code(2, 2, addCode)
	w.u4(uint32(len(body)))
	w.buf = append(w.buf, body...)

	w.u2(classfile.AccStatic)
	w.u2(11)
	w.u2(12)
	w.u2(1)
	w.u2(7)
	body = w.code(1, 0, clinitCode)
	w.u4(uint32(len(body)))
	w.buf = append(w.buf, body...)

	w.u2(0) // class attributes
	return w.buf
}

func writeClassFile(t *testing.T, root, name string, image []byte) {
	t.Helper()
	path := filepath.Join(root, name+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestClassFilePath(t *testing.T) {
	got := classFilePath("com.example.Foo", "cp")
	want := filepath.Join("cp", "com", "example", "Foo.class")
	if got != want {
		t.Errorf("classFilePath: got %q, want %q", got, want)
	}
	if classFilePath("Bar", ".") != filepath.Join(".", "Bar.class") {
		t.Errorf("plain name mapping broken")
	}
}

func TestLoadClassDerivation(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	writeClassFile(t, root, "Calc", calcClass(t, false))

	c, err := vm.LoadClass("Calc")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}

	if c.Name != "Calc" {
		t.Errorf("name: got %q", c.Name)
	}
	if c.Super != vm.ObjectClass {
		t.Errorf("superclass is not the root object class")
	}
	if c.State() != StateVerified {
		t.Errorf("state after derivation: got %s, want Verified", c.State())
	}
	if c.InstanceFieldCount != 1 {
		t.Errorf("instance field count: got %d, want 1", c.InstanceFieldCount)
	}
	if c.StaticSlotCount() != 1 {
		t.Errorf("static slots: got %d, want 1", c.StaticSlotCount())
	}
	if _, ok := c.CPEntry(14).(CPUnresolvedField); !ok {
		t.Errorf("cp[14]: got %T, want CPUnresolvedField", c.CPEntry(14))
	}

	// loading again returns the registered instance
	again, err := vm.LoadClass("Calc")
	if err != nil || again != c {
		t.Errorf("second load: got %p (%v), want the same class", again, err)
	}
}

func TestLoadedClassRunsAndInitializes(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	writeClassFile(t, root, "Calc", calcClass(t, false))

	c, err := vm.LoadClass("Calc")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}

	th := NewThread(vm)
	if err := th.InitializeClass(c); err != nil {
		t.Fatalf("InitializeClass: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state: got %s, want Ready", c.State())
	}
	if got := i32(c.GetStatic(0)); got != 7 {
		t.Errorf("counter after <clinit>: got %d, want 7", got)
	}

	addIdx := -1
	for i := range c.Methods {
		if c.Methods[i].Name == "add" {
			addIdx = i
		}
	}
	if addIdx < 0 {
		t.Fatal("add method not lowered")
	}
	run := NewThread(vm)
	run.Start(c, addIdx, []uint64{u32(19), u32(23)})
	if got := mustFinishInt(t, run); got != 42 {
		t.Errorf("add(19, 23): got %d", got)
	}
}

func TestLoadClassRejectsUnknownOpcode(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	writeClassFile(t, root, "Calc", calcClass(t, true))

	if _, err := vm.LoadClass("Calc"); err == nil {
		t.Fatal("LoadClass accepted a method with an unsupported opcode")
	}
}

func TestLoadClassMissingFile(t *testing.T) {
	vm := newTestVM(t)
	if _, err := vm.LoadClass("NoSuchClass"); err == nil {
		t.Fatal("LoadClass of a missing file succeeded")
	}
}

func TestLoadArrayClasses(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	writeClassFile(t, root, "Calc", calcClass(t, false))

	arr, err := vm.LoadClass("[Calc")
	if err != nil {
		t.Fatalf("LoadClass([Calc): %v", err)
	}
	if arr.Name != "[Calc" {
		t.Errorf("array class name: got %q", arr.Name)
	}
	if arr.Super != vm.ObjectClass {
		t.Errorf("array superclass is not the root object class")
	}
	if arr.InstanceFieldCount != 0 || len(arr.Methods) != 0 {
		t.Errorf("array class carries members")
	}
	if arr.State() != StateVerified {
		t.Errorf("array class state: got %s", arr.State())
	}

	nested, err := vm.LoadClass("[[Calc")
	if err != nil {
		t.Fatalf("LoadClass([[Calc): %v", err)
	}
	if nested.Name != "[[Calc" {
		t.Errorf("nested array name: got %q", nested.Name)
	}

	// primitive array classes were pre-registered at bootstrap
	ints, err := vm.LoadClass("[I")
	if err != nil || ints == nil {
		t.Fatalf("LoadClass([I): %v", err)
	}
}

func TestNativeBinding(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// a stub java/lang/Math declaring sqrt as native binds against the
	// registry at load time
	w := &classImage{}
	w.u4(classfile.Magic)
	w.u2(0)
	w.u2(61)
	w.u2(7)
	w.utf8("java/lang/Math") // 1
	w.u1(classfile.TagClass) // 2
	w.u2(1)
	w.utf8("java/lang/Object") // 3
	w.u1(classfile.TagClass)   // 4
	w.u2(3)
	w.utf8("sqrt") // 5
	w.utf8("(D)D") // 6
	w.u2(classfile.AccPublic)
	w.u2(2)
	w.u2(4)
	w.u2(0)
	w.u2(0)
	w.u2(1)
	w.u2(classfile.AccPublic | classfile.AccStatic | classfile.AccNative)
	w.u2(5)
	w.u2(6)
	w.u2(0)
	w.u2(0)
	writeClassFile(t, root, "java/lang/Math", w.buf)

	c, err := vm.LoadClass("java/lang/Math")
	if err != nil {
		t.Fatalf("LoadClass: %v", err)
	}
	if c.Methods[0].Native == nil {
		t.Fatal("native method not bound")
	}

	th := NewThread(vm)
	th.Start(c, 0, []uint64{uf64(9)})
	if th.Status != StatusFinished {
		t.Fatalf("status %v: %s", th.Status, th.FailMsg)
	}
	if got := f64(th.Result); got != 3 {
		t.Errorf("sqrt(9): got %v, want 3", got)
	}
}

func TestNativeBindingFailureIsLoadError(t *testing.T) {
	root := t.TempDir()
	vm, err := New(Options{Classpath: root, HeapWords: 1 << 20})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := &classImage{}
	w.u4(classfile.Magic)
	w.u2(0)
	w.u2(61)
	w.u2(7)
	w.utf8("Strange")        // 1
	w.u1(classfile.TagClass) // 2
	w.u2(1)
	w.utf8("java/lang/Object") // 3
	w.u1(classfile.TagClass)   // 4
	w.u2(3)
	w.utf8("mystery") // 5
	w.utf8("()V")     // 6
	w.u2(0)
	w.u2(2)
	w.u2(4)
	w.u2(0)
	w.u2(0)
	w.u2(1)
	w.u2(classfile.AccNative)
	w.u2(5)
	w.u2(6)
	w.u2(0)
	w.u2(0)
	writeClassFile(t, root, "Strange", w.buf)

	_, err = vm.LoadClass("Strange")
	if err == nil || !strings.Contains(err.Error(), "bind native") {
		t.Fatalf("got %v, want native binding error", err)
	}
}
