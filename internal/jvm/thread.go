package jvm

import (
	"fmt"
	"strings"

	"github.com/mabhi256/gvm/internal/descriptor"
	"github.com/mabhi256/gvm/internal/heap"
)

// maxFrameDepth bounds the number of nested method invocations.
const maxFrameDepth = 1024

// Status describes a thread's lifecycle outcome.
type Status int

const (
	StatusNew Status = iota
	StatusRunning
	StatusFinished
	StatusFailed
)

// Thread is one cooperative Java-thread executor: a frame stack and the
// outcome of the last Start call. A Thread is single-goroutine; shared
// state lives behind the VM's locks and atomics.
type Thread struct {
	vm     *VM
	frames []*Frame

	Status  Status
	Result  uint64
	HasRes  bool
	FailMsg string
}

func NewThread(vm *VM) *Thread {
	return &Thread{vm: vm}
}

// Start runs the method to completion. args become the leading locals of
// the initial frame (the receiver first for instance methods). VM-level
// panics (stack overflow, arena exhaustion, underflow) abort the thread
// with a Failed status rather than crashing the host.
func (t *Thread) Start(c *Class, methodIndex int, args []uint64) {
	t.Status = StatusRunning
	t.HasRes = false
	t.FailMsg = ""

	defer func() {
		if r := recover(); r != nil {
			t.Status = StatusFailed
			t.FailMsg = fmt.Sprintf("VM error: %v", r)
		}
	}()

	ret, hasRet, err := t.invoke(c, methodIndex, args)
	if err != nil {
		t.Status = StatusFailed
		if je, ok := err.(*javaException); ok {
			t.FailMsg = t.FormatTrace(je.ref)
		} else {
			t.FailMsg = err.Error()
		}
		return
	}
	t.Status = StatusFinished
	t.Result = ret
	t.HasRes = hasRet
}

// invoke runs one method on a fresh frame (or dispatches a native) and
// returns its result. A returned *javaException is a Java throwable still
// looking for a handler; any other error is fatal to the thread.
func (t *Thread) invoke(c *Class, methodIndex int, args []uint64) (uint64, bool, error) {
	if methodIndex < 0 || methodIndex >= len(c.Methods) {
		return 0, false, fmt.Errorf("method index %d out of range in %s", methodIndex, c.Name)
	}
	m := &c.Methods[methodIndex]

	if len(t.frames) >= maxFrameDepth {
		return 0, false, fmt.Errorf("stack overflow: frame depth exceeded %d in %s.%s",
			maxFrameDepth, c.Name, m.Name)
	}

	if m.Native != nil {
		// a bodyless frame so stack-trace walkers observe the method
		t.frames = append(t.frames, newNativeFrame(c, m))
		ret, hasRet, exc := m.Native(t, args)
		t.frames = t.frames[:len(t.frames)-1]
		if !exc.IsNull() {
			return 0, false, &javaException{ref: exc}
		}
		return ret, hasRet, nil
	}

	if m.Code == nil {
		return 0, false, fmt.Errorf("invoking %s.%s%s without code", c.Name, m.Name, m.Desc)
	}

	f, err := NewFrame(c, m, m.Code.MaxLocals, m.Code.MaxStack)
	if err != nil {
		return 0, false, err
	}
	if len(args) > m.Code.MaxLocals {
		return 0, false, fmt.Errorf("%d args exceed max_locals %d of %s.%s",
			len(args), m.Code.MaxLocals, c.Name, m.Name)
	}
	copy(f.data, args)

	t.frames = append(t.frames, f)
	ret, hasRet, err := t.run(f)
	t.frames = t.frames[:len(t.frames)-1]
	return ret, hasRet, err
}

// CurrentClass returns the class of the innermost non-native frame below
// the running native, or of the running method itself. Natives use it to
// reach their caller's statics.
func (t *Thread) CurrentClass() *Class {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if !t.frames[i].native {
			return t.frames[i].class
		}
	}
	if len(t.frames) > 0 {
		return t.frames[len(t.frames)-1].class
	}
	return nil
}

// VM exposes the owning VM to native methods.
func (t *Thread) VM() *VM { return t.vm }

// Throwable field layout shared by the bootstrap hierarchy: slot 0 holds
// the StackTraceElement[] captured at construction, slot 1 the message.
const (
	throwableFieldTrace   = 0
	throwableFieldMessage = 1
)

// StackTraceElement slots.
const (
	steFieldClass  = 0
	steFieldMethod = 1
)

// Throw builds an instance of the named throwable class, runs its no-arg
// constructor if it has one, captures the stack trace, and returns the
// unwinding error. The common exception classes are pre-built at bootstrap
// so this never recurses into class loading.
func (t *Thread) Throw(className string) error {
	ref := t.MakeThrowable(className, "")
	return &javaException{ref: ref}
}

// ThrowMessage is Throw with a message string stored on the throwable.
func (t *Thread) ThrowMessage(className, message string) error {
	ref := t.MakeThrowable(className, message)
	return &javaException{ref: ref}
}

// MakeThrowable constructs the throwable object and returns its handle;
// natives use it to fill their exception result.
func (t *Thread) MakeThrowable(className, message string) heap.Ref {
	c, err := t.vm.LoadClass(className)
	if err != nil {
		panic(fmt.Sprintf("throwable class %s unavailable: %v", className, err))
	}
	obj, err := t.vm.Arena.NewObject(c.ID(), c.InstanceFieldCount)
	if err != nil {
		panic(fmt.Sprintf("allocating %s: %v", className, err))
	}

	if idx := c.FindMethod("<init>", voidDescriptor()); idx >= 0 {
		// best effort; a broken constructor must not mask the original throw
		_, _, _ = t.invoke(c, idx, []uint64{uint64(obj)})
	}

	if trace, err := t.captureStackTrace(); err == nil {
		t.vm.Arena.SetField(obj, throwableFieldTrace, uint64(trace))
	}
	if message != "" {
		if ref, err := t.vm.Strings.Add(message); err == nil {
			t.vm.Arena.SetField(obj, throwableFieldMessage, uint64(ref))
		}
	}
	return obj
}

// captureStackTrace allocates a StackTraceElement[] describing the frames
// below any running native frame, innermost first.
func (t *Thread) captureStackTrace() (heap.Ref, error) {
	steClass, err := t.vm.LoadClass("java/lang/StackTraceElement")
	if err != nil {
		return 0, err
	}
	arrClass, err := t.vm.LoadClass("[java/lang/StackTraceElement")
	if err != nil {
		return 0, err
	}

	var frames []*Frame
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].native {
			continue
		}
		frames = append(frames, t.frames[i])
	}

	arr, err := t.vm.Arena.NewArray(arrClass.ID(), len(frames))
	if err != nil {
		return 0, err
	}
	for i, f := range frames {
		elem, err := t.vm.Arena.NewObject(steClass.ID(), steClass.InstanceFieldCount)
		if err != nil {
			return 0, err
		}
		classRef, err := t.vm.Strings.Intern(f.class.Name)
		if err != nil {
			return 0, err
		}
		methodRef, err := t.vm.Strings.Intern(f.method.Name)
		if err != nil {
			return 0, err
		}
		t.vm.Arena.SetField(elem, steFieldClass, uint64(classRef))
		t.vm.Arena.SetField(elem, steFieldMethod, uint64(methodRef))
		t.vm.Arena.SetElem(arr, i, uint64(elem))
	}
	return arr, nil
}

// FormatTrace renders an uncaught throwable the way the launcher prints it:
//
//	Exception java/lang/NullPointerException
//	      at Foo.bar
//	      at Foo.main
func (t *Thread) FormatTrace(exc heap.Ref) string {
	var sb strings.Builder

	c := t.vm.ClassOf(exc)
	name := "<unknown>"
	if c != nil {
		name = c.Name
	}
	sb.WriteString("Exception " + name)

	if msgRef := refFromWord(t.vm.Arena.GetField(exc, throwableFieldMessage)); !msgRef.IsNull() {
		sb.WriteString(": " + t.vm.Strings.Get(msgRef))
	}

	traceRef := refFromWord(t.vm.Arena.GetField(exc, throwableFieldTrace))
	if !traceRef.IsNull() {
		length := t.vm.Arena.ArrayLength(traceRef)
		for i := 0; i < length; i++ {
			word, ok := t.vm.Arena.GetElem(traceRef, i)
			if !ok {
				break
			}
			elem := refFromWord(word)
			if elem.IsNull() {
				continue
			}
			className := t.vm.Strings.Get(refFromWord(t.vm.Arena.GetField(elem, steFieldClass)))
			methodName := t.vm.Strings.Get(refFromWord(t.vm.Arena.GetField(elem, steFieldMethod)))
			sb.WriteString(fmt.Sprintf("\n      at %s.%s", className, methodName))
		}
	}
	return sb.String()
}

func refFromWord(w uint64) heap.Ref {
	return heap.Ref(w)
}

func voidDescriptor() descriptor.MethodDescriptor {
	return descriptor.MethodDescriptor{Ret: descriptor.Base('V')}
}

func loadClassDescriptor() descriptor.MethodDescriptor {
	return descriptor.MethodDescriptor{
		Params: []descriptor.FieldType{
			descriptor.Object("java/lang/ClassLoader"),
			descriptor.Object("java/lang/String"),
		},
		Ret: descriptor.Object("java/lang/Class"),
	}
}

func (vm *VM) tracef(format string, args ...any) {
	if vm.opts.PrintTrace {
		fmt.Fprintf(vm.TraceOut, format+"\n", args...)
	}
}
