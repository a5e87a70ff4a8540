package calc

import (
	"io"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	cases := []struct {
		src    string
		tokens []lexToken
		errs   int
	}{
		// spaces
		{"", nil, 0},
		{" \t \r\n ", nil, 0},
		// numbers
		{"0", []lexToken{{text: "0", kind: tokenNum, pos: 1}}, 0},
		{"9876543210", []lexToken{{text: "9876543210", kind: tokenNum, pos: 1}}, 0},
		{"1 0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "0", kind: tokenNum, pos: 3}}, 0},
		{"1.0", []lexToken{{text: "1.0", kind: tokenNum, pos: 1}}, 0},
		{"1.", []lexToken{{text: "1.", kind: tokenNum, pos: 1}}, 0},
		{"-1", []lexToken{{text: "-", kind: tokenOp, pos: 1}, {text: "1", kind: tokenNum, pos: 2}}, 0},
		{"1e1", []lexToken{{text: "1e1", kind: tokenNum, pos: 1}}, 0},
		{"1e", []lexToken{{pos: 1}}, 1},
		{"1e+1", []lexToken{{text: "1e+1", kind: tokenNum, pos: 1}}, 0},
		{"1e-1", []lexToken{{text: "1e-1", kind: tokenNum, pos: 1}}, 0},
		{"1.1.1", []lexToken{{pos: 1}, {text: "1", kind: tokenNum, pos: 5}}, 1},
		{"1.0e1", []lexToken{{text: "1.0e1", kind: tokenNum, pos: 1}}, 0},
		{".", []lexToken{{pos: 1}}, 1},
		{".1", []lexToken{{text: ".1", kind: tokenNum, pos: 1}}, 0},
		{".1e1", []lexToken{{text: ".1e1", kind: tokenNum, pos: 1}}, 0},
		{"1a", []lexToken{{pos: 1}}, 1},
		// leading zeros
		{"00", []lexToken{{text: "00", kind: tokenNum, pos: 1}}, 0},
		{"01", []lexToken{{pos: 1}}, 1},
		{"00.5", []lexToken{{text: "00.5", kind: tokenNum, pos: 1}}, 0},
		{"05.5", []lexToken{{text: "05.5", kind: tokenNum, pos: 1}}, 0},
		{"0.05", []lexToken{{text: "0.05", kind: tokenNum, pos: 1}}, 0},
		// identifiers
		{"e", []lexToken{{text: "e", kind: tokenIdent, pos: 1}}, 0},
		{"e1", []lexToken{{text: "e1", kind: tokenIdent, pos: 1}}, 0},
		{"π", []lexToken{{text: "π", kind: tokenIdent, pos: 1}}, 0},
		{"_1234_", []lexToken{{text: "_1234_", kind: tokenIdent, pos: 1}}, 0},
		{"floor(", []lexToken{{text: "floor", kind: tokenIdent, pos: 1}, {text: "(", kind: tokenOpen, pos: 6}}, 0},
		// operators
		{"+", []lexToken{{text: "+", kind: tokenOp, pos: 1}}, 0},
		{"++", []lexToken{{text: "+", kind: tokenOp, pos: 1}, {text: "+", kind: tokenOp, pos: 2}}, 0},
		{"1+0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "+", kind: tokenOp, pos: 2}, {text: "0", kind: tokenNum, pos: 3}}, 0},
		{"2**3", []lexToken{{text: "2", kind: tokenNum, pos: 1}, {text: "**", kind: tokenOp, pos: 2}, {text: "3", kind: tokenNum, pos: 4}}, 0},
		{"7//2", []lexToken{{text: "7", kind: tokenNum, pos: 1}, {text: "//", kind: tokenOp, pos: 2}, {text: "2", kind: tokenNum, pos: 4}}, 0},
		{"7%2", []lexToken{{text: "7", kind: tokenNum, pos: 1}, {text: "%", kind: tokenOp, pos: 2}, {text: "2", kind: tokenNum, pos: 3}}, 0},
		{"2*-3", []lexToken{{text: "2", kind: tokenNum, pos: 1}, {text: "*", kind: tokenOp, pos: 2}, {text: "-", kind: tokenOp, pos: 3}, {text: "3", kind: tokenNum, pos: 4}}, 0},
		{"***", []lexToken{{text: "**", kind: tokenOp, pos: 1}, {text: "*", kind: tokenOp, pos: 3}}, 0},
		{"/", []lexToken{{text: "/", kind: tokenOp, pos: 1}}, 0},
		// brackets and separators
		{"()", []lexToken{{text: "(", kind: tokenOpen, pos: 1}, {text: ")", kind: tokenClose, pos: 2}}, 0},
		{"f(1,2)", []lexToken{
			{text: "f", kind: tokenIdent, pos: 1},
			{text: "(", kind: tokenOpen, pos: 2},
			{text: "1", kind: tokenNum, pos: 3},
			{text: ",", kind: tokenSep, pos: 4},
			{text: "2", kind: tokenNum, pos: 5},
			{text: ")", kind: tokenClose, pos: 6},
		}, 0},
		// erroneous symbols
		{"$", []lexToken{{pos: 1}}, 1},
		{"[", []lexToken{{pos: 1}}, 1},
		{"a$", []lexToken{{text: "a", kind: tokenIdent, pos: 1}, {pos: 2}}, 1},
		{"$a", []lexToken{{pos: 1}, {text: "a", kind: tokenIdent, pos: 2}}, 1},
		{"0$", []lexToken{{pos: 1}}, 1},
		{"$0", []lexToken{{pos: 1}, {text: "0", kind: tokenNum, pos: 2}}, 1},
		{"$$", []lexToken{{pos: 1}, {pos: 2}}, 2},
	}

	for _, c := range cases {
		scan := lex(strings.NewReader(c.src))
		for _, want := range c.tokens {
			got, err := scan.next("")
			if err == io.EOF || got.kind == tokenEOF {
				t.Errorf("scanning %q: expected token %v but got EOF", c.src, want)
				continue
			}
			if got != want {
				t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
			}
			if err != nil {
				if c.errs > 0 {
					c.errs--
					continue
				}
				t.Errorf("scanning %q: unexpected error %v", c.src, err)
			}
		}
		for got, err := scan.next(""); err != io.EOF && got.kind != tokenEOF; got, err = scan.next("") {
			if c.errs > 0 {
				c.errs--
			}
			t.Errorf("scanning %q: extra token %v with error: %v", c.src, got, err)
		}
		if c.errs > 0 {
			t.Errorf("scanning %q: not enough errors", c.src)
		}
	}
}

func TestLexEOF(t *testing.T) {
	scan := lex(strings.NewReader("1\n2"))
	if tok, err := scan.next("\n"); err != nil || tok.text != "1" {
		t.Fatalf("first token: got %v, %v", tok, err)
	}
	if tok, err := scan.next("\n"); err != nil || tok.kind != tokenEOF {
		t.Fatalf("newline should end input: got %v, %v", tok, err)
	}
	if tok, err := scan.next("\n"); err != io.EOF {
		t.Errorf("scanning after EOF gave %v, %v", tok, err)
	}
}

func TestLexErrorMessage(t *testing.T) {
	_, err := lex(strings.NewReader("01")).next("")
	if err == nil {
		t.Fatal("no error for leading zero")
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("error %#v is not *LexError", err)
	}
	if le.Kind != "number" || le.Text != "01" {
		t.Errorf("wrong error details: %+v", le)
	}
	if msg := le.Error(); !strings.Contains(msg, "number") || !strings.Contains(msg, "01") {
		t.Errorf("message %q should mention the number", msg)
	}
}
