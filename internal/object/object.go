// Package object defines the heap object variants of the data model: the
// String/Function/Closure/Upvalue/Native/Class/Instance/BoundMethod tags,
// each carrying a value.Header so the collector can trace and sweep them
// uniformly regardless of kind.
package object

import (
	"fmt"

	"github.com/chazu/finch/internal/bytecode"
	"github.com/chazu/finch/internal/value"
)

// Kind tags for the heap object variants, assigned to value.ObjKind.
const (
	KindString value.ObjKind = iota
	KindFunction
	KindClosure
	KindUpvalue
	KindNative
	KindClass
	KindInstance
	KindBoundMethod
)

// String is an immutable, interned byte sequence with a cached hash.
// Pointer equality of *String values is equivalent to value equality of
// their contents, because all Strings are created through a Strings
// intern table (see strings.go).
type String struct {
	value.Header
	Chars string
	Hash  uint32
}

func (s *String) ObjHeader() *value.Header { return &s.Header }
func (s *String) String() string           { return s.Chars }

// Function is produced by the compiler and never mutated after creation.
// Name is nil for the top-level script function.
type Function struct {
	value.Header
	Arity      int
	UpvalueCnt int
	Chunk      *bytecode.Chunk
	Name       *String
}

func (f *Function) ObjHeader() *value.Header { return &f.Header }
func (f *Function) UpvalueCount() int        { return f.UpvalueCnt }
func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// Upvalue is a reified reference to a variable captured by a closure:
// open while the variable is still on the value stack (Location points
// into it), closed after the owning frame returns (Closed holds the
// lifted value and Location is nil).
type Upvalue struct {
	value.Header
	Location   *value.Value
	Closed     value.Value
	StackIndex int      // valid only while open; lets the VM order/locate the open list without pointer arithmetic
	Next       *Upvalue // intrusive open-upvalue list, ordered by descending stack index
}

func (u *Upvalue) ObjHeader() *value.Header { return &u.Header }
func (u *Upvalue) String() string           { return "<upvalue>" }

// IsOpen reports whether the upvalue still references a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.Location != nil }

// Get returns the upvalue's current value, open or closed.
func (u *Upvalue) Get() value.Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set assigns the upvalue's value, open or closed.
func (u *Upvalue) Set(v value.Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close lifts the current stack value into the upvalue's own storage and
// detaches it from the stack.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = nil
}

// Closure pairs a Function with the upvalues it captured at creation.
type Closure struct {
	value.Header
	Function *Function
	Upvalues []*Upvalue
}

func (c *Closure) ObjHeader() *value.Header { return &c.Header }
func (c *Closure) String() string           { return c.Function.String() }

// NativeFn is a host-provided built-in. It receives the argument slice and
// returns a single Value; native failures are not modeled and always
// succeed with some Value, per the core specification.
type NativeFn func(args []value.Value) value.Value

// Native wraps a host function so it can be stored in a Value and called
// through the normal CALL instruction.
type Native struct {
	value.Header
	Name string
	Fn   NativeFn
}

func (n *Native) ObjHeader() *value.Header { return &n.Header }
func (n *Native) String() string           { return fmt.Sprintf("<native fn %s>", n.Name) }

// Class holds a name and a method table (name -> Closure-wrapping Value),
// mutable while CLASS/METHOD/INHERIT instructions execute.
type Class struct {
	value.Header
	Name    *String
	Methods map[string]value.Value
}

func (c *Class) ObjHeader() *value.Header { return &c.Header }
func (c *Class) String() string           { return fmt.Sprintf("<class %s>", c.Name.Chars) }

// NewClass creates an empty class with the given name.
func NewClass(name *String) *Class {
	return &Class{Name: name, Methods: make(map[string]value.Value)}
}

// AddMethod binds method under name, overwriting any previous binding.
func (c *Class) AddMethod(name string, method value.Value) {
	c.Methods[name] = method
}

// LookupMethod returns the method bound to name, if any.
func (c *Class) LookupMethod(name string) (value.Value, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

// InheritFrom copies every method of super into c, as OP_INHERIT does.
func (c *Class) InheritFrom(super *Class) {
	for name, m := range super.Methods {
		c.Methods[name] = m
	}
}

// Instance is a mutable class instance with a name -> Value field table.
// Fields are looked up before methods at GET_PROPERTY, so a field can
// shadow a method of the same name.
type Instance struct {
	value.Header
	Class  *Class
	Fields map[string]value.Value
}

func (i *Instance) ObjHeader() *value.Header { return &i.Header }
func (i *Instance) String() string           { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }

// NewInstance creates a zero-field instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]value.Value)}
}

// GetField returns the instance's field named name, if set.
func (i *Instance) GetField(name string) (value.Value, bool) {
	v, ok := i.Fields[name]
	return v, ok
}

// SetField sets the instance's field named name.
func (i *Instance) SetField(name string, v value.Value) {
	i.Fields[name] = v
}

// BoundMethod pairs a receiver instance with the closure it resolved to,
// captured at property-read time by GET_PROPERTY/GET_SUPER.
type BoundMethod struct {
	value.Header
	Receiver value.Value
	Method   *Closure
}

func (b *BoundMethod) ObjHeader() *value.Header { return &b.Header }
func (b *BoundMethod) String() string           { return b.Method.String() }
