package compiler

import (
	"github.com/chazu/finch/internal/bytecode"
	"github.com/chazu/finch/internal/token"
	"github.com/chazu/finch/internal/value"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Class):
		c.classDeclaration()
	case c.match(token.Fun):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.Eof) {
		c.declaration()
	}
	c.consume(token.RightBrace, "expect '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after value")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after expression")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "expect '(' after 'if'")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk().CurrentOffset()
	c.consume(token.LeftParen, "expect '(' after 'while'")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "expect '(' after 'for'")

	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().CurrentOffset()
	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "expect ';' after loop condition")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.match(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := c.chunk().CurrentOffset()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RightParen, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.curFunc.kind == KindScript {
		c.errorAtPrevious("can't return from top-level code")
	}

	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}

	if c.curFunc.kind == KindInitializer {
		c.errorAtPrevious("can't return a value from an initializer")
	}

	c.expression()
	c.consume(token.Semicolon, "expect ';' after return value")
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("expect variable name")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.Semicolon, "expect ';' after variable declaration")

	c.defineVariable(global)
}

// parseVariable consumes an identifier, declares it as a local (if scoped),
// and returns the identifier-constant index to use for DEFINE_GLOBAL (0 if
// the variable is local, since locals need no global-table entry).
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.Identifier, errMsg)
	name := c.previous.Lexeme

	c.declareVariable(name)
	if c.curFunc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.curFunc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("expect function name")
	c.markInitialized()
	c.function(KindFunction, c.previous.Lexeme)
	c.defineVariable(global)
}

// function compiles a function's parameter list and body in a fresh
// function-compiler, then emits CLOSURE in the enclosing compiler along
// with one {is_local,index} descriptor per upvalue.
func (c *Compiler) function(kind FuncKind, name string) {
	c.pushFunc(kind, name)
	c.beginScope()

	c.consume(token.LeftParen, "expect '(' after function name")
	if !c.check(token.RightParen) {
		for {
			c.curFunc.function.Arity++
			if c.curFunc.function.Arity > maxParams {
				c.errorAtCurrent("can't have more than 255 parameters")
			}
			paramConst := c.parseVariable("expect parameter name")
			c.defineVariable(paramConst)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "expect ')' after parameters")
	c.consume(token.LeftBrace, "expect '{' before function body")
	c.block()

	upvalues := c.curFunc.upvalues
	fn := c.endFunc()

	c.emitOp(bytecode.OpClosure)
	c.emitByte(c.makeConstant(value.Obj(fn)))
	for _, uv := range upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.Identifier, "expect class name")
	className := c.previous.Lexeme
	nameConst := c.identifierConstant(className)
	c.declareVariable(className)

	c.emitOpByte(bytecode.OpClass, nameConst)
	c.defineVariable(nameConst)

	cc := &classCompiler{enclosing: c.class}
	c.class = cc

	if c.match(token.Less) {
		c.consume(token.Identifier, "expect superclass name")
		c.variable(false)
		if c.previous.Lexeme == className {
			c.errorAtPrevious("a class can't inherit from itself")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(bytecode.OpInherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LeftBrace, "expect '{' before class body")
	for !c.check(token.RightBrace) && !c.check(token.Eof) {
		c.method()
	}
	c.consume(token.RightBrace, "expect '}' after class body")
	c.emitOp(bytecode.OpPop)

	if cc.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.Identifier, "expect method name")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)

	kind := KindMethod
	if name == "init" {
		kind = KindInitializer
	}
	c.function(kind, name)
	c.emitOpByte(bytecode.OpMethod, nameConst)
}
