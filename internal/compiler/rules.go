package compiler

import "github.com/chazu/finch/internal/token"

// precedence levels, low to high, driving the Pratt parser's binding power.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LeftParen:    {(*Compiler).grouping, (*Compiler).call, precCall},
		token.RightParen:   {nil, nil, precNone},
		token.LeftBrace:    {nil, nil, precNone},
		token.RightBrace:   {nil, nil, precNone},
		token.Comma:        {nil, nil, precNone},
		token.Dot:          {nil, (*Compiler).dot, precCall},
		token.Minus:        {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.Plus:         {nil, (*Compiler).binary, precTerm},
		token.Semicolon:    {nil, nil, precNone},
		token.Slash:        {nil, (*Compiler).binary, precFactor},
		token.Star:         {nil, (*Compiler).binary, precFactor},
		token.Bang:         {(*Compiler).unary, nil, precNone},
		token.BangEqual:    {nil, (*Compiler).binary, precEquality},
		token.Equal:        {nil, nil, precNone},
		token.EqualEqual:   {nil, (*Compiler).binary, precEquality},
		token.Greater:      {nil, (*Compiler).binary, precComparison},
		token.GreaterEqual: {nil, (*Compiler).binary, precComparison},
		token.Less:         {nil, (*Compiler).binary, precComparison},
		token.LessEqual:    {nil, (*Compiler).binary, precComparison},
		token.Identifier:   {(*Compiler).variable, nil, precNone},
		token.String:       {(*Compiler).stringLiteral, nil, precNone},
		token.Number:       {(*Compiler).number, nil, precNone},
		token.And:          {nil, (*Compiler).and_, precAnd},
		token.Class:        {nil, nil, precNone},
		token.Else:         {nil, nil, precNone},
		token.False:        {(*Compiler).literal, nil, precNone},
		token.For:          {nil, nil, precNone},
		token.Fun:          {nil, nil, precNone},
		token.If:           {nil, nil, precNone},
		token.Nil:          {(*Compiler).literal, nil, precNone},
		token.Or:           {nil, (*Compiler).or_, precOr},
		token.Print:        {nil, nil, precNone},
		token.Return:       {nil, nil, precNone},
		token.Super:        {(*Compiler).super_, nil, precNone},
		token.This:         {(*Compiler).this_, nil, precNone},
		token.True:         {(*Compiler).literal, nil, precNone},
		token.Var:          {nil, nil, precNone},
		token.While:        {nil, nil, precNone},
		token.Error:        {nil, nil, precNone},
		token.Eof:          {nil, nil, precNone},
	}
}

func ruleFor(k token.Kind) parseRule {
	if r, ok := rules[k]; ok {
		return r
	}
	return parseRule{nil, nil, precNone}
}
