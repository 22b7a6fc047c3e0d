package scanner

import (
	"testing"

	"github.com/chazu/finch/internal/token"
)

func scanAll(src string) []token.Token {
	s := New(src)
	var toks []token.Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == token.Eof {
			return toks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,+-*!= <= >= ==")
	want := []token.Kind{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Semicolon, token.Comma, token.Plus, token.Minus, token.Star,
		token.BangEqual, token.LessEqual, token.GreaterEqual, token.EqualEqual,
		token.Eof,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestScanStringLiteralExcludesQuotes(t *testing.T) {
	toks := scanAll(`"hello world"`)
	if toks[0].Kind != token.String {
		t.Fatalf("got kind %v, want String", toks[0].Kind)
	}
	if toks[0].Lexeme != "hello world" {
		t.Errorf("Lexeme = %q, want %q", toks[0].Lexeme, "hello world")
	}
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"oops`)
	if toks[0].Kind != token.Error {
		t.Fatalf("got kind %v, want Error", toks[0].Kind)
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll("3.14 42")
	if toks[0].Kind != token.Number || toks[0].Lexeme != "3.14" {
		t.Errorf("got %v %q, want Number 3.14", toks[0].Kind, toks[0].Lexeme)
	}
	if toks[1].Kind != token.Number || toks[1].Lexeme != "42" {
		t.Errorf("got %v %q, want Number 42", toks[1].Kind, toks[1].Lexeme)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("class fun orchid")
	if toks[0].Kind != token.Class {
		t.Errorf("got %v, want Class", toks[0].Kind)
	}
	if toks[1].Kind != token.Fun {
		t.Errorf("got %v, want Fun", toks[1].Kind)
	}
	if toks[2].Kind != token.Identifier || toks[2].Lexeme != "orchid" {
		t.Errorf("got %v %q, want Identifier \"orchid\"", toks[2].Kind, toks[2].Lexeme)
	}
}

func TestScanSkipsLineComments(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	if toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("got %q then %q, want 1 then 2", toks[0].Lexeme, toks[1].Lexeme)
	}
}

func TestScanTracksLineNumbers(t *testing.T) {
	toks := scanAll("1\n2\n3")
	for i, want := range []int{1, 2, 3} {
		if toks[i].Line != want {
			t.Errorf("token %d: line = %d, want %d", i, toks[i].Line, want)
		}
	}
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	if toks[0].Kind != token.Error {
		t.Fatalf("got kind %v, want Error", toks[0].Kind)
	}
}
