// Package gc implements a tracing mark-and-sweep collector: a single
// allocator enrolling every heap object into a master list, a
// threshold-doubling trigger policy, and tri-color marking with
// per-kind blackening.
package gc

import (
	"fmt"
	"io"
	"math"

	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/value"
)

// initialThreshold is the byte threshold before the first collection.
const initialThreshold = 1 << 20 // 1 MiB

// defaultGrowFactor is applied to bytes-still-allocated after a collection
// to compute the next threshold.
const defaultGrowFactor = 2.0

// RootProvider is implemented by any subsystem that can hold live
// references the collector must treat as roots: the VM (stack, globals,
// call frames, open upvalues) and the compiler (in-progress Functions).
type RootProvider interface {
	PushRoots(mark func(value.Value))
}

// Collector owns the heap: the master object list, the interned-string
// table, the allocation threshold, and the set of registered root
// providers.
type Collector struct {
	strings *object.Strings

	objects value.Object // head of the intrusive master object list

	bytesAllocated int
	nextGC         int
	growFactor     float64

	stress bool
	logGC  bool
	log    io.Writer

	roots     []RootProvider
	grayStack []value.Object
}

// Config holds the tunables from the optional finch.toml [gc]/[debug]
// sections (see internal/config).
type Config struct {
	InitialHeapBytes int
	HeapGrowFactor   float64
	StressGC         bool
	LogGC            bool
}

// New returns a Collector backed by strings, the process-wide intern
// table, configured from cfg.
func New(strings *object.Strings, cfg Config, logWriter io.Writer) *Collector {
	threshold := cfg.InitialHeapBytes
	if threshold <= 0 {
		threshold = initialThreshold
	}
	grow := cfg.HeapGrowFactor
	if grow <= 0 {
		grow = defaultGrowFactor
	}
	return &Collector{
		strings:    strings,
		nextGC:     threshold,
		growFactor: grow,
		stress:     cfg.StressGC,
		logGC:      cfg.LogGC,
		log:        logWriter,
	}
}

// AddRoot registers rp as a root provider consulted at the start of every
// collection.
func (gc *Collector) AddRoot(rp RootProvider) {
	gc.roots = append(gc.roots, rp)
}

// RemoveRoot unregisters the most recently added occurrence of rp, used by
// the compiler to stop contributing roots once compilation of one source
// text has finished.
func (gc *Collector) RemoveRoot(rp RootProvider) {
	for i := len(gc.roots) - 1; i >= 0; i-- {
		if gc.roots[i] == rp {
			gc.roots = append(gc.roots[:i], gc.roots[i+1:]...)
			return
		}
	}
}

// BytesAllocated returns the collector's current accounting of live bytes.
func (gc *Collector) BytesAllocated() int {
	return gc.bytesAllocated
}

// maybeCollect runs a collection if the stress flag is set or the
// threshold is exceeded. Called before a new object is linked into the
// master list and counted, so that object is never itself a candidate
// for the collection it triggers.
func (gc *Collector) maybeCollect() {
	if gc.stress || gc.bytesAllocated > gc.nextGC {
		gc.Collect()
	}
}

// track enrolls a freshly allocated object into the master list. Every
// New* constructor below calls this, after first giving maybeCollect a
// chance to run against the state as of before this allocation.
func (gc *Collector) track(o value.Object, size int) {
	gc.maybeCollect()

	h := o.ObjHeader()
	h.Color = value.White
	h.Size = size
	h.Next = gc.objects
	gc.objects = o
	gc.bytesAllocated += size
}

// InternString returns the canonical *object.String for chars, allocating
// and tracking a new one on first sight.
func (gc *Collector) InternString(chars string) *object.String {
	str, created := gc.strings.Intern(chars)
	if created {
		gc.track(str, len(chars)+16)
	}
	return str
}

// NewFunction allocates and tracks a Function.
func (gc *Collector) NewFunction() *object.Function {
	fn := &object.Function{}
	fn.Header.Kind = object.KindFunction
	gc.track(fn, 64)
	return fn
}

// NewClosure allocates and tracks a Closure over fn with upvalues.
func (gc *Collector) NewClosure(fn *object.Function, upvalues []*object.Upvalue) *object.Closure {
	c := &object.Closure{Function: fn, Upvalues: upvalues}
	c.Header.Kind = object.KindClosure
	gc.track(c, 32+8*len(upvalues))
	return c
}

// NewUpvalue allocates and tracks an open Upvalue referencing stack slot
// stackIndex via loc.
func (gc *Collector) NewUpvalue(loc *value.Value, stackIndex int) *object.Upvalue {
	u := &object.Upvalue{Location: loc, StackIndex: stackIndex}
	u.Header.Kind = object.KindUpvalue
	gc.track(u, 32)
	return u
}

// NewNative allocates and tracks a Native built-in.
func (gc *Collector) NewNative(name string, fn object.NativeFn) *object.Native {
	n := &object.Native{Name: name, Fn: fn}
	n.Header.Kind = object.KindNative
	gc.track(n, 32)
	return n
}

// NewClass allocates and tracks a Class named name.
func (gc *Collector) NewClass(name *object.String) *object.Class {
	c := object.NewClass(name)
	c.Header.Kind = object.KindClass
	gc.track(c, 48)
	return c
}

// NewInstance allocates and tracks an Instance of class.
func (gc *Collector) NewInstance(class *object.Class) *object.Instance {
	i := object.NewInstance(class)
	i.Header.Kind = object.KindInstance
	gc.track(i, 32)
	return i
}

// NewBoundMethod allocates and tracks a BoundMethod.
func (gc *Collector) NewBoundMethod(receiver value.Value, method *object.Closure) *object.BoundMethod {
	b := &object.BoundMethod{Receiver: receiver, Method: method}
	b.Header.Kind = object.KindBoundMethod
	gc.track(b, 32)
	return b
}

// Collect runs one full mark-and-sweep cycle: gather roots, trace the
// gray worklist to black, sweep every object still white, then recompute
// the next threshold from bytes-still-allocated.
func (gc *Collector) Collect() {
	if gc.logGC && gc.log != nil {
		fmt.Fprintf(gc.log, "-- gc begin (bytesAllocated=%d)\n", gc.bytesAllocated)
	}

	gc.grayStack = gc.grayStack[:0]
	for _, rp := range gc.roots {
		rp.PushRoots(gc.markValue)
	}
	gc.trace()
	gc.sweep()

	next := float64(gc.bytesAllocated) * gc.growFactor
	if next >= float64(math.MaxInt) {
		gc.nextGC = math.MaxInt
	} else {
		gc.nextGC = int(next)
	}

	if gc.logGC && gc.log != nil {
		fmt.Fprintf(gc.log, "-- gc end (bytesAllocated=%d, nextGC=%d)\n", gc.bytesAllocated, gc.nextGC)
	}
}

// markValue grays v's object reference, if it has one.
func (gc *Collector) markValue(v value.Value) {
	if v.IsObj() {
		gc.markObject(v.AsObj())
	}
}

// markObject grays o and pushes it onto the worklist, unless it is nil or
// already non-white.
func (gc *Collector) markObject(o value.Object) {
	if o == nil {
		return
	}
	h := o.ObjHeader()
	if h.Color != value.White {
		return
	}
	h.Color = value.Gray
	gc.grayStack = append(gc.grayStack, o)
}

// trace pops gray objects and blackens them until the worklist is empty.
func (gc *Collector) trace() {
	for len(gc.grayStack) > 0 {
		n := len(gc.grayStack) - 1
		o := gc.grayStack[n]
		gc.grayStack = gc.grayStack[:n]
		gc.blacken(o)
	}
}

// blacken marks o black and grays every object it references, dispatching
// on kind. Every case must be disjoint and end without falling through to
// another kind's marking.
func (gc *Collector) blacken(o value.Object) {
	o.ObjHeader().Color = value.Black

	switch v := o.(type) {
	case *object.String, *object.Native:
		// no outgoing references

	case *object.Function:
		if v.Name != nil {
			gc.markObject(v.Name)
		}
		if v.Chunk != nil {
			for _, k := range v.Chunk.Constants {
				gc.markValue(k)
			}
		}

	case *object.Closure:
		gc.markObject(v.Function)
		for _, uv := range v.Upvalues {
			gc.markObject(uv)
		}

	case *object.Upvalue:
		if !v.IsOpen() {
			gc.markValue(v.Closed)
		}

	case *object.Class:
		gc.markObject(v.Name)
		for _, m := range v.Methods {
			gc.markValue(m)
		}

	case *object.Instance:
		gc.markObject(v.Class)
		for _, f := range v.Fields {
			gc.markValue(f)
		}

	case *object.BoundMethod:
		gc.markValue(v.Receiver)
		gc.markObject(v.Method)
	}
}

// sweep partitions the master object list into survivors (re-whitened for
// the next cycle) and white objects (unlinked and discarded). A swept
// String removes itself from the intern table.
func (gc *Collector) sweep() {
	var previous value.Object
	obj := gc.objects

	for obj != nil {
		h := obj.ObjHeader()
		next := h.Next

		if h.Color != value.White {
			h.Color = value.White
			previous = obj
		} else {
			if previous == nil {
				gc.objects = next
			} else {
				previous.ObjHeader().Next = next
			}
			gc.bytesAllocated -= h.Size
			if str, ok := obj.(*object.String); ok {
				gc.strings.Remove(str)
			}
		}
		obj = next
	}
}
