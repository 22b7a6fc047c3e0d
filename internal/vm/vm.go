// Package vm executes compiled bytecode: it owns the value stack, the
// call-frame stack, globals, open-upvalue bookkeeping, and native-function
// registration, and drives the dispatch loop described by the
// specification's instruction set.
package vm

import (
	"io"
	"time"

	"github.com/chazu/finch/internal/gc"
	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/value"
)

// InterpretResult mirrors the three-way outcome of one Interpret call.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

const maxFrames = 1024

// stackMax is the stack's fixed capacity. It is allocated once and never
// reallocated, since open upvalues hold raw pointers into its backing
// array; a slice that could grow via append would invalidate them.
const stackMax = maxFrames * 64

// callFrame is the execution state of one active invocation.
type callFrame struct {
	closure *object.Closure
	ip      int
	base    int // index into vm.stack of slot 0 for this frame
}

// VM is an explicit, non-singleton interpreter instance: a host may run
// several independently.
type VM struct {
	gc      *gc.Collector
	strings *object.Strings

	stack    [stackMax]value.Value
	stackTop int
	frames   []*callFrame

	globals      map[string]value.Value
	openUpvalues *object.Upvalue // head, ordered by descending stack index
	initString   *object.String

	stdout io.Writer
	stderr io.Writer
	trace  bool
}

// New creates a VM. collector and strings are typically shared with the
// compiler that will feed it, since both allocate through the same heap
// and intern table.
func New(collector *gc.Collector, strings *object.Strings, stdout, stderr io.Writer, trace bool) *VM {
	v := &VM{
		gc:         collector,
		strings:    strings,
		globals:    make(map[string]value.Value),
		stdout:     stdout,
		stderr:     stderr,
		trace:      trace,
		initString: collector.InternString("init"),
	}
	collector.AddRoot(v)
	v.defineNative("clock", func(args []value.Value) value.Value {
		return value.Number(float64(time.Now().UnixNano()) / float64(time.Second))
	})
	return v
}

// Close releases the VM's roots and state: it unregisters the VM as a
// root provider and clears its stack, frames, globals and open upvalues,
// so the next collection can reclaim everything the VM kept alive. It
// does not itself run a collection or empty the intern table.
func (vm *VM) Close() {
	vm.gc.RemoveRoot(vm)
	vm.stackTop = 0
	vm.frames = nil
	vm.globals = nil
	vm.openUpvalues = nil
}

// PushRoots implements gc.RootProvider.
func (vm *VM) PushRoots(mark func(value.Value)) {
	for i := 0; i < vm.stackTop; i++ {
		mark(vm.stack[i])
	}
	for _, v := range vm.globals {
		mark(v)
	}
	for _, f := range vm.frames {
		mark(value.Obj(f.closure))
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		mark(value.Obj(uv))
	}
	if vm.initString != nil {
		mark(value.Obj(vm.initString))
	}
}

// ---------------------------------------------------------------------
// Stack primitives
// ---------------------------------------------------------------------

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frames = nil
	vm.openUpvalues = nil
}

// defineNative registers a host built-in in globals. A duplicate name at
// registration is a fatal configuration error, per the core
// specification; it panics rather than returning an error because it can
// only happen from programmer mistake during VM setup, never from
// interpreted code.
func (vm *VM) defineNative(name string, fn object.NativeFn) {
	if _, exists := vm.globals[name]; exists {
		panic("native function " + name + " already registered")
	}
	native := vm.gc.NewNative(name, fn)
	vm.globals[name] = value.Obj(native)
}

// DefineNative registers an additional host built-in beyond the fixed
// `clock` native the core specification requires. Embedders extending the
// interpreter's native-function table call this before the first
// Interpret.
func (vm *VM) DefineNative(name string, fn object.NativeFn) {
	vm.defineNative(name, fn)
}
