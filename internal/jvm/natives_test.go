package jvm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mabhi256/gvm/internal/descriptor"
)

func newCapturedVM(t *testing.T) (*VM, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	vm, err := New(Options{
		Classpath: t.TempDir(),
		HeapWords: 1 << 20,
		Stdout:    &out,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return vm, &out
}

func TestPrintStreamNatives(t *testing.T) {
	vm, out := newCapturedVM(t)
	th := NewThread(vm)

	reg := vm.natives

	tests := []struct {
		desc string
		name string
		arg  uint64
		want string
	}{
		{"(I)V", "println", u32(-42), "-42\n"},
		{"(J)V", "println", u64(1 << 40), "1099511627776\n"},
		{"(C)V", "print", uint64('x'), "x"},
		{"(D)V", "println", uf64(2), "2.0\n"},
		{"(D)V", "println", uf64(2.5), "2.5\n"},
	}
	for _, tt := range tests {
		out.Reset()
		fn, ok := reg[nativeKey{"java/io/PrintStream", tt.name, tt.desc}]
		if !ok {
			t.Fatalf("no native for PrintStream.%s%s", tt.name, tt.desc)
		}
		if _, _, exc := fn(th, []uint64{0, tt.arg}); !exc.IsNull() {
			t.Fatalf("%s%s raised", tt.name, tt.desc)
		}
		if out.String() != tt.want {
			t.Errorf("%s%s: got %q, want %q", tt.name, tt.desc, out.String(), tt.want)
		}
	}

	out.Reset()
	ref, _ := vm.Strings.Intern("hello")
	fn := reg[nativeKey{"java/io/PrintStream", "println", "(Ljava/lang/String;)V"}]
	fn(th, []uint64{0, uint64(ref)})
	if out.String() != "hello\n" {
		t.Errorf("println(String): got %q", out.String())
	}

	out.Reset()
	fn(th, []uint64{0, 0})
	if out.String() != "null\n" {
		t.Errorf("println(null): got %q", out.String())
	}
}

func TestIntegerAndLongNatives(t *testing.T) {
	vm, _ := newCapturedVM(t)
	th := NewThread(vm)

	t.Run("parseInt", func(t *testing.T) {
		ref, _ := vm.Strings.Intern("-123")
		ret, hasRet, exc := nativeIntegerParseInt(th, []uint64{uint64(ref)})
		if !exc.IsNull() || !hasRet {
			t.Fatalf("parseInt raised or returned nothing")
		}
		if i32(ret) != -123 {
			t.Errorf("parseInt: got %d", i32(ret))
		}
	})

	t.Run("parseInt failure", func(t *testing.T) {
		ref, _ := vm.Strings.Intern("xyz")
		_, _, exc := nativeIntegerParseInt(th, []uint64{uint64(ref)})
		if exc.IsNull() {
			t.Fatal("parseInt accepted garbage")
		}
		if vm.ClassOf(exc).Name != "java/lang/NumberFormatException" {
			t.Errorf("exception class: %s", vm.ClassOf(exc).Name)
		}
	})

	t.Run("toString", func(t *testing.T) {
		ret, _, exc := nativeIntegerToString(th, []uint64{u32(77)})
		if !exc.IsNull() {
			t.Fatal("toString raised")
		}
		if got := vm.Strings.Get(refFromWord(ret)); got != "77" {
			t.Errorf("toString: got %q", got)
		}
	})

	t.Run("parseLong", func(t *testing.T) {
		ref, _ := vm.Strings.Intern("1099511627776")
		ret, _, exc := nativeLongParseLong(th, []uint64{uint64(ref)})
		if !exc.IsNull() {
			t.Fatal("parseLong raised")
		}
		if i64(ret) != 1<<40 {
			t.Errorf("parseLong: got %d", i64(ret))
		}
	})
}

func TestFormatDouble(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{2, "2.0"},
		{-3, "-3.0"},
		{2.5, "2.5"},
		{0.125, "0.125"},
	}
	for _, tt := range tests {
		if got := formatDouble(tt.in); got != tt.want {
			t.Errorf("formatDouble(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBootstrapStringNatives(t *testing.T) {
	vm, _ := newCapturedVM(t)
	th := NewThread(vm)

	t.Run("concat", func(t *testing.T) {
		a, _ := vm.Strings.Intern("foo")
		b, _ := vm.Strings.Intern("bar")
		ret, _, exc := nativeStringConcat(th, []uint64{uint64(a), uint64(b)})
		if !exc.IsNull() {
			t.Fatal("concat raised")
		}
		if got := vm.Strings.Get(refFromWord(ret)); got != "foobar" {
			t.Errorf("concat: got %q", got)
		}

		// appending the empty string returns the receiver unchanged
		empty, _ := vm.Strings.Intern("")
		ret, _, _ = nativeStringConcat(th, []uint64{uint64(a), uint64(empty)})
		if refFromWord(ret) != a {
			t.Error("concat with empty string allocated a new object")
		}
	})

	t.Run("charAt", func(t *testing.T) {
		s, _ := vm.Strings.Intern("abc")
		ret, _, exc := nativeStringCharAt(th, []uint64{uint64(s), u32(1)})
		if !exc.IsNull() {
			t.Fatal("charAt raised")
		}
		if rune(ret) != 'b' {
			t.Errorf("charAt(1): got %q", rune(ret))
		}

		_, _, exc = nativeStringCharAt(th, []uint64{uint64(s), u32(5)})
		if exc.IsNull() {
			t.Fatal("charAt past the end did not raise")
		}
		if !strings.Contains(vm.ClassOf(exc).Name, "ArrayIndexOutOfBounds") {
			t.Errorf("exception class: %s", vm.ClassOf(exc).Name)
		}
	})

	t.Run("object toString", func(t *testing.T) {
		obj, _ := vm.Arena.NewObject(vm.ObjectClass.ID(), 0)
		ret, _, exc := nativeObjectToString(th, []uint64{uint64(obj)})
		if !exc.IsNull() {
			t.Fatal("toString raised")
		}
		got := vm.Strings.Get(refFromWord(ret))
		if !strings.HasPrefix(got, "java/lang/Object@") {
			t.Errorf("toString: got %q", got)
		}
	})
}

func TestClassLoaderNative(t *testing.T) {
	vm, _ := newCapturedVM(t)
	th := NewThread(vm)

	nameRef, _ := vm.Strings.Intern("[I")
	ret, hasRet, exc := nativeClassLoaderLoadClass(th, []uint64{0, uint64(nameRef)})
	if !exc.IsNull() || !hasRet {
		t.Fatalf("loadClass raised or returned nothing")
	}
	c := vm.ClassOf(refFromWord(ret))
	if c == nil || c.Name != "[I" {
		t.Errorf("loadClass returned the wrong class: %v", c)
	}

	missing, _ := vm.Strings.Intern("does/not/Exist")
	_, _, exc = nativeClassLoaderLoadClass(th, []uint64{0, uint64(missing)})
	if exc.IsNull() {
		t.Fatal("loadClass of a missing class did not raise")
	}
	if vm.ClassOf(exc).Name != "java/lang/Exception" {
		t.Errorf("exception class: %s", vm.ClassOf(exc).Name)
	}
}

func TestObjectEqualsBytecode(t *testing.T) {
	vm, _ := newCapturedVM(t)

	obj1, _ := vm.Arena.NewObject(vm.ObjectClass.ID(), 0)
	obj2, _ := vm.Arena.NewObject(vm.ObjectClass.ID(), 0)

	equalsDesc := descriptor.MethodDescriptor{
		Params: []descriptor.FieldType{descriptor.Object("java/lang/Object")},
		Ret:    descriptor.Base('Z'),
	}
	idx := vm.ObjectClass.FindMethod("equals", equalsDesc)
	if idx < 0 {
		t.Fatal("Object.equals not found")
	}

	th := NewThread(vm)
	th.Start(vm.ObjectClass, idx, []uint64{uint64(obj1), uint64(obj1)})
	if got := mustFinishInt(t, th); got != 1 {
		t.Errorf("x.equals(x): got %d, want 1", got)
	}

	th2 := NewThread(vm)
	th2.Start(vm.ObjectClass, idx, []uint64{uint64(obj1), uint64(obj2)})
	if got := mustFinishInt(t, th2); got != 0 {
		t.Errorf("x.equals(y): got %d, want 0", got)
	}
}
