// Package compiler implements the single-pass Pratt parser that emits
// bytecode directly into a Function's Chunk, tracking lexical scopes,
// local slots, and closed-over upvalues. It never builds or retains an
// AST.
package compiler

import (
	"fmt"

	"github.com/chazu/finch/internal/bytecode"
	"github.com/chazu/finch/internal/gc"
	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/scanner"
	"github.com/chazu/finch/internal/token"
	"github.com/chazu/finch/internal/value"
)

// CompileError is one reported diagnostic. The compiler keeps going after
// the first one (once synchronized) so a single pass can surface more
// than one mistake, but a non-empty error slice always means compilation
// failed as a whole.
type CompileError struct {
	Line    int
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

const maxLocals = 256
const maxUpvalues = 256
const maxParams = 255
const maxArgs = 255

// FuncKind identifies what a nested function-compiler is compiling.
type FuncKind int

const (
	KindScript FuncKind = iota
	KindFunction
	KindMethod
	KindInitializer
)

type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueDesc struct {
	index   byte
	isLocal bool
}

// funcCompiler is one entry in the compiler stack: one per nested
// function, method, or the top-level script.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *object.Function
	kind      FuncKind

	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int
}

// classCompiler is one entry in the parallel class-compiler stack,
// tracking whether the currently compiling class has a superclass.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler drives the scanner and emits bytecode for one top-level
// compilation unit (one source text).
type Compiler struct {
	sc *scanner.Scanner
	gc *gc.Collector

	previous token.Token
	current  token.Token

	curFunc *funcCompiler
	class   *classCompiler

	hadError  bool
	panicMode bool
	errors    []CompileError
}

// Compile compiles source into a top-level script Function. A non-empty
// error slice means compilation failed; the returned Function is nil in
// that case.
func Compile(source string, collector *gc.Collector) (*object.Function, []CompileError) {
	c := &Compiler{sc: scanner.New(source), gc: collector}
	collector.AddRoot(c)
	defer collector.RemoveRoot(c)

	c.pushFunc(KindScript, "")

	c.advance()
	for !c.match(token.Eof) {
		c.declaration()
	}
	fn := c.endFunc()

	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

// PushRoots implements gc.RootProvider: every Function belonging to an
// active function-compiler in the stack is a root, since it may not yet
// be reachable from anywhere else (it is only wrapped into a Value and
// stored as a constant once its enclosing CLOSURE instruction is emitted).
func (c *Compiler) PushRoots(mark func(value.Value)) {
	for fc := c.curFunc; fc != nil; fc = fc.enclosing {
		mark(value.Obj(fc.function))
	}
}

// ---------------------------------------------------------------------
// Token stream plumbing
// ---------------------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.sc.Next()
		if c.current.Kind != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool {
	return c.current.Kind == k
}

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, message string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAtPrevious(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(t token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errors = append(c.errors, CompileError{Line: t.Line, Message: message})
}

// synchronize discards tokens until it reaches a likely statement
// boundary, per the core specification's panic-mode recovery rule.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.Eof {
		if c.previous.Kind == token.Semicolon {
			return
		}
		switch c.current.Kind {
		case token.Class, token.Fun, token.Var, token.For,
			token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// ---------------------------------------------------------------------
// Function-compiler stack
// ---------------------------------------------------------------------

func (c *Compiler) pushFunc(kind FuncKind, name string) {
	fn := c.gc.NewFunction()
	if name != "" {
		fn.Name = c.gc.InternString(name)
	}
	fc := &funcCompiler{enclosing: c.curFunc, function: fn, kind: kind}

	// Slot 0 is reserved for VM use: "this" for methods/initializers,
	// empty (unreachable by any identifier) otherwise.
	slot0Name := ""
	if kind == KindMethod || kind == KindInitializer {
		slot0Name = "this"
	}
	fc.locals = append(fc.locals, local{name: slot0Name, depth: 0})

	c.curFunc = fc
}

func (c *Compiler) endFunc() *object.Function {
	c.emitReturn()
	fn := c.curFunc.function
	fn.UpvalueCnt = len(c.curFunc.upvalues)
	c.curFunc = c.curFunc.enclosing
	return fn
}

func (c *Compiler) chunk() *bytecode.Chunk {
	return c.curFunc.function.Chunk
}

// ---------------------------------------------------------------------
// Bytecode emission helpers
// ---------------------------------------------------------------------

func (c *Compiler) ensureChunk() {
	if c.chunk() == nil {
		c.curFunc.function.Chunk = bytecode.NewChunk()
	}
}

func (c *Compiler) emitByte(b byte) {
	c.ensureChunk()
	c.chunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.Op) {
	c.ensureChunk()
	c.chunk().WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitOpByte(op bytecode.Op, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	if c.curFunc.kind == KindInitializer {
		c.emitOpByte(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.ensureChunk()
	if err := c.chunk().EmitConstant(v, c.previous.Line); err != nil {
		c.errorAtPrevious(err.Error())
	}
}

func (c *Compiler) makeConstant(v value.Value) byte {
	c.ensureChunk()
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.errorAtPrevious(err.Error())
		return 0
	}
	return byte(idx)
}

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(value.Obj(c.gc.InternString(name)))
}

func (c *Compiler) emitJump(op bytecode.Op) int {
	c.ensureChunk()
	return c.chunk().EmitJump(op, c.previous.Line)
}

func (c *Compiler) patchJump(offset int) {
	if err := c.chunk().PatchJump(offset); err != nil {
		c.errorAtPrevious(err.Error())
	}
}

func (c *Compiler) emitLoop(loopStart int) {
	if err := c.chunk().EmitLoop(loopStart, c.previous.Line); err != nil {
		c.errorAtPrevious(err.Error())
	}
}

// ---------------------------------------------------------------------
// Scopes, locals, upvalues
// ---------------------------------------------------------------------

func (c *Compiler) beginScope() {
	c.curFunc.scopeDepth++
}

func (c *Compiler) endScope() {
	c.curFunc.scopeDepth--
	fc := c.curFunc
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		last := fc.locals[len(fc.locals)-1]
		if last.isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) {
	if len(c.curFunc.locals) >= maxLocals {
		c.errorAtPrevious("too many local variables in function")
		return
	}
	c.curFunc.locals = append(c.curFunc.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(name string) {
	if c.curFunc.scopeDepth == 0 {
		return
	}
	fc := c.curFunc
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAtPrevious("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) markInitialized() {
	if c.curFunc.scopeDepth == 0 {
		return
	}
	c.curFunc.locals[len(c.curFunc.locals)-1].depth = c.curFunc.scopeDepth
}

// resolveLocal scans fc's locals from highest to lowest index.
func resolveLocal(fc *funcCompiler, name string) (int, bool, bool) {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				return i, true, false // found but uninitialized: caller reports error
			}
			return i, true, true
		}
	}
	return -1, false, false
}

// addUpvalue adds (deduplicating) an upvalue descriptor to fc and returns
// its index, or -1 if fc already has maxUpvalues distinct upvalues.
func addUpvalue(fc *funcCompiler, index byte, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		return -1
	}
	fc.upvalues = append(fc.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}

// resolveUpvalue recursively resolves name as a captured variable of an
// enclosing function-compiler, per the core specification's three-step
// name resolution. It reports a compile error itself when it finds the
// variable but addUpvalue overflows, since the caller cannot distinguish
// that case from "not found" through the returned -1 alone.
func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if idx, found, ok := resolveLocal(fc.enclosing, name); found {
		if !ok {
			return -1
		}
		fc.enclosing.locals[idx].isCaptured = true
		uv := addUpvalue(fc, byte(idx), true)
		if uv == -1 {
			c.errorAtPrevious("too many closure variables in function")
		}
		return uv
	}
	if idx := c.resolveUpvalue(fc.enclosing, name); idx != -1 {
		uv := addUpvalue(fc, byte(idx), false)
		if uv == -1 {
			c.errorAtPrevious("too many closure variables in function")
		}
		return uv
	}
	return -1
}

// namedVariable resolves an identifier and emits the matching
// GET/SET instruction triple (local, upvalue, or global).
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.Op
	var arg int

	if idx, found, ok := resolveLocal(c.curFunc, name); found {
		if !ok {
			c.errorAtPrevious("cannot read local variable in its own initializer")
		}
		arg = idx
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if idx := c.resolveUpvalue(c.curFunc, name); idx != -1 {
		arg = idx
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}
