// Package token defines the lexical token kinds produced by the scanner and
// consumed by the compiler's Pratt parser.
package token

// Kind identifies the lexical category of a Token.
type Kind uint8

const (
	// Single-character punctuation.
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character operators.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	String
	Number

	// Keywords.
	And
	Class
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	// Error and Eof.
	Error
	Eof
)

// Keywords maps reserved words to their keyword Kind.
var Keywords = map[string]Kind{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// Token is a single lexical unit: its kind, the source slice it spans, and
// the 1-based line the scanner was on when the token ended (the line it
// starts on, except for a string literal that spans newlines).
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}

// String renders a Token for diagnostic and disassembly output.
func (t Token) String() string {
	return t.Lexeme
}

var names = map[Kind]string{
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Comma: ",", Dot: ".", Minus: "-", Plus: "+", Semicolon: ";",
	Slash: "/", Star: "*",
	Bang: "!", BangEqual: "!=", Equal: "=", EqualEqual: "==",
	Greater: ">", GreaterEqual: ">=", Less: "<", LessEqual: "<=",
	Identifier: "identifier", String: "string", Number: "number",
	And: "and", Class: "class", Else: "else", False: "false", For: "for",
	Fun: "fun", If: "if", Nil: "nil", Or: "or", Print: "print",
	Return: "return", Super: "super", This: "this", True: "true",
	Var: "var", While: "while",
	Error: "error", Eof: "EOF",
}

// KindName returns a human-readable name for a Kind, used in error messages.
func KindName(k Kind) string {
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}
