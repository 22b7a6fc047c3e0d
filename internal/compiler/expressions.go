package compiler

import (
	"strconv"

	"github.com/chazu/finch/internal/bytecode"
	"github.com/chazu/finch/internal/token"
	"github.com/chazu/finch/internal/value"
)

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence is the Pratt parser's core loop: consume a prefix
// parselet for the current token, then keep consuming infix parselets
// whose precedence is at least minPrec.
func (c *Compiler) parsePrecedence(minPrec precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Kind).prefix
	if prefix == nil {
		c.errorAtPrevious("expect expression")
		return
	}

	canAssign := minPrec <= precAssignment
	prefix(c, canAssign)

	for minPrec <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infix := ruleFor(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAtPrevious("invalid assignment target")
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "expect ')' after expression")
}

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("invalid number literal")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	c.emitConstant(value.Obj(c.gc.InternString(c.previous.Lexeme)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	case token.True:
		c.emitOp(bytecode.OpTrue)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.errorAtPrevious("can't use 'this' outside of a class")
		return
	}
	c.namedVariable("this", false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.errorAtPrevious("can't use 'super' outside of a class")
	} else if !c.class.hasSuperclass {
		c.errorAtPrevious("can't use 'super' in a class with no superclass")
	}

	c.consume(token.Dot, "expect '.' after 'super'")
	c.consume(token.Identifier, "expect superclass method name")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(token.LeftParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitOp(bytecode.OpSuperInvoke)
		c.emitByte(name)
		c.emitByte(argCount)
		return
	}
	c.namedVariable("super", false)
	c.emitOpByte(bytecode.OpGetSuper, name)
}

func (c *Compiler) unary(canAssign bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	op := c.previous.Kind
	rule := ruleFor(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.BangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.EqualEqual:
		c.emitOp(bytecode.OpEqual)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSubtract)
	case token.Star:
		c.emitOp(bytecode.OpMultiply)
	case token.Slash:
		c.emitOp(bytecode.OpDivide)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argCount)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.Identifier, "expect property name after '.'")
	name := c.identifierConstant(c.previous.Lexeme)

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpByte(bytecode.OpSetProperty, name)
	} else if c.match(token.LeftParen) {
		argCount := c.argumentList()
		c.emitOp(bytecode.OpInvoke)
		c.emitByte(name)
		c.emitByte(argCount)
	} else {
		c.emitOpByte(bytecode.OpGetProperty, name)
	}
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if count >= maxArgs {
				c.errorAtPrevious("can't have more than 255 arguments")
			}
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "expect ')' after arguments")
	return byte(count)
}
