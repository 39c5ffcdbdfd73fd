package jvm

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mabhi256/gvm/internal/heap"
)

// defaultHeapWords sizes the arena at 64M words (512 MiB) unless the
// --heap flag says otherwise.
const defaultHeapWords = 64 * 1024 * 1024

// Options configures a VM instance.
type Options struct {
	// Classpath is the single directory searched for .class files.
	Classpath string
	// HeapWords is the arena capacity in 64-bit words.
	HeapWords int
	// PrintTrace enables per-instruction diagnostic logging on TraceOut.
	PrintTrace bool
	// Stdout receives PrintStream output.
	Stdout io.Writer
	// TraceOut receives trace lines; defaults to stderr.
	TraceOut io.Writer
}

// VM holds the process-wide singletons: the pinned class registry, the
// object arena, the string pool and the native registry. Bootstrapping
// happens once inside New, in dependency order.
type VM struct {
	opts Options

	mu      sync.Mutex
	classes []*Class
	byName  map[string]*Class

	Arena   *heap.Arena
	Strings *heap.StringPool
	Stats   *Stats

	natives map[nativeKey]NativeFunc

	ObjectClass      *Class
	ClassLoaderClass *Class
	StringClass      *Class

	Stdout   io.Writer
	TraceOut io.Writer
}

// New builds a VM: arena and string pool first, then the native registry,
// then the bootstrap classes (which already need all three).
func New(opts Options) (*VM, error) {
	if opts.Classpath == "" {
		opts.Classpath = "."
	}
	if opts.HeapWords <= 0 {
		opts.HeapWords = defaultHeapWords
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.TraceOut == nil {
		opts.TraceOut = os.Stderr
	}

	vm := &VM{
		opts:     opts,
		byName:   make(map[string]*Class),
		Arena:    heap.NewArena(opts.HeapWords),
		Stats:    NewStats(),
		Stdout:   opts.Stdout,
		TraceOut: opts.TraceOut,
	}
	vm.Strings = heap.NewStringPool(vm.Arena)
	vm.natives = buildNativeRegistry()

	if err := vm.loadBootstrapClasses(); err != nil {
		return nil, fmt.Errorf("bootstrapping: %w", err)
	}
	return vm, nil
}

// addClass pins a class in the registry, assigns its id, allocates its
// self-referential mirror object and records it in the loader namespace.
// When a racing derivation already registered the name, the first entry
// wins and is returned instead.
func (vm *VM) addClass(c *Class) (*Class, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if existing, ok := vm.byName[c.Name]; ok {
		return existing, nil
	}

	c.id = uint32(len(vm.classes))
	mirror, err := vm.Arena.NewObject(c.id, 0)
	if err != nil {
		return nil, fmt.Errorf("allocating mirror for %s: %w", c.Name, err)
	}
	c.mirror = mirror
	vm.classes = append(vm.classes, c)
	vm.byName[c.Name] = c
	return c, nil
}

// FindLoadedClass returns the class registered under name, if any.
func (vm *VM) FindLoadedClass(name string) *Class {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.byName[name]
}

// ClassByID maps a header class id back to the class.
func (vm *VM) ClassByID(id uint32) *Class {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if int(id) >= len(vm.classes) {
		return nil
	}
	return vm.classes[id]
}

// ClassOf returns the runtime class of an arena object.
func (vm *VM) ClassOf(r heap.Ref) *Class {
	return vm.ClassByID(vm.Arena.ClassID(r))
}

// LoadedClassCount reports the registry size, for the monitor.
func (vm *VM) LoadedClassCount() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.classes)
}
