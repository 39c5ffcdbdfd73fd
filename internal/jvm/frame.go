package jvm

import "fmt"

// MaxFrameWords bounds the combined locals + operand stack of one frame.
const MaxFrameWords = 1024

// Frame is one method invocation: a fixed-size word buffer whose first
// localSize slots are the local variable array and whose remainder is the
// operand stack growing upward. Slots are opaque 64-bit words; longs and
// doubles occupy a single slot in this machine.
type Frame struct {
	class  *Class
	method *Method
	pc     int

	localSize int
	stackSize int
	top       int
	data      []uint64

	// native frames carry no data; they exist so stack-trace walkers see
	// the native method.
	native bool
}

func NewFrame(class *Class, method *Method, localSize, stackSize int) (*Frame, error) {
	if localSize+stackSize > MaxFrameWords {
		return nil, fmt.Errorf("frame of %d words exceeds the %d-word bound",
			localSize+stackSize, MaxFrameWords)
	}
	return &Frame{
		class:     class,
		method:    method,
		localSize: localSize,
		stackSize: stackSize,
		top:       localSize,
		data:      make([]uint64, localSize+stackSize),
	}, nil
}

func newNativeFrame(class *Class, method *Method) *Frame {
	return &Frame{class: class, method: method, native: true}
}

// Push adds a word on top of the operand stack.
func (f *Frame) Push(v uint64) {
	if f.top-f.localSize >= f.stackSize {
		panic(fmt.Sprintf("operand stack overflow in %s.%s: size %d",
			f.class.Name, f.method.Name, f.stackSize))
	}
	f.data[f.top] = v
	f.top++
}

// Pop removes and returns the top word.
func (f *Frame) Pop() uint64 {
	if f.top <= f.localSize {
		panic(fmt.Sprintf("operand stack underflow in %s.%s", f.class.Name, f.method.Name))
	}
	f.top--
	return f.data[f.top]
}

// GetS reads a narrow (32-bit) word from local index i.
func (f *Frame) GetS(i int) uint32 {
	return uint32(f.GetD(i))
}

// GetD reads a wide word from local index i.
func (f *Frame) GetD(i int) uint64 {
	if i < 0 || i >= f.localSize {
		panic(fmt.Sprintf("local index %d out of range [0, %d) in %s.%s",
			i, f.localSize, f.class.Name, f.method.Name))
	}
	return f.data[i]
}

// SetS stores a narrow word at local index i, zero-extended.
func (f *Frame) SetS(i int, v uint32) {
	f.SetD(i, uint64(v))
}

// SetD stores a wide word at local index i.
func (f *Frame) SetD(i int, v uint64) {
	if i < 0 || i >= f.localSize {
		panic(fmt.Sprintf("local index %d out of range [0, %d) in %s.%s",
			i, f.localSize, f.class.Name, f.method.Name))
	}
	f.data[i] = v
}

// ClearStack resets the operand stack; used when an exception handler takes
// over the frame.
func (f *Frame) ClearStack() {
	f.top = f.localSize
}

// StackDepth returns the number of words currently on the operand stack.
func (f *Frame) StackDepth() int {
	return f.top - f.localSize
}

// PopArgs pops n words and returns them in push order, ready to become the
// callee's leading locals.
func (f *Frame) PopArgs(n int) []uint64 {
	if f.top-f.localSize < n {
		panic(fmt.Sprintf("pop of %d args underflows stack of %d in %s.%s",
			n, f.StackDepth(), f.class.Name, f.method.Name))
	}
	args := make([]uint64, n)
	copy(args, f.data[f.top-n:f.top])
	f.top -= n
	return args
}

// PeekNth reads the k-th word from the top without popping; k=0 is the top.
func (f *Frame) PeekNth(k int) uint64 {
	if f.top-f.localSize <= k {
		panic(fmt.Sprintf("peek %d past stack of %d in %s.%s",
			k, f.StackDepth(), f.class.Name, f.method.Name))
	}
	return f.data[f.top-k-1]
}
