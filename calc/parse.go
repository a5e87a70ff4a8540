package calc

import (
	"io"
	"sort"
	"strings"
)

// Expr = num | name | Call | Neg | Plus | Add | Sub | Mul | Div | FloorDiv | Mod | Pow | '(' Expr ')'
// Call = funcname | funcname '(' [ Expr { ',' Expr } ] ')'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr
// Div = Expr '/' Expr
// FloorDiv = Expr '//' Expr
// Mod = Expr '%' Expr
// Pow = Expr '**' Expr

// Expr is a parsed expression that can be evaluated with a context.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the list of variable names used in the expression.
	names []string
}

// Parse parses an expression so it can be evaluated with a context. The given
// options are applied in order.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	scan := lex(src)
	p := parsectx{
		names: make(map[string]bool),
	}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.funcs == nil {
		p.funcs = globalfuncs
	} else if !p.nodefaults {
		// Only set default functions that aren't already set.
		for k, v := range globalfuncs {
			if _, ok := p.funcs[k]; !ok {
				p.funcs[k] = v
			}
		}
	}
	n, err := parseterm(scan, &p, exprprec)
	if err != nil {
		return nil, err
	}
	tok := scan.must()
	switch tok.kind {
	case tokenEOF:
	case tokenSep:
		if !p.ceof {
			return nil, itShouldNotHaveEndedThisWay(tok, false)
		}
	default:
		return nil, itShouldNotHaveEndedThisWay(tok, false)
	}
	if n == nil {
		return nil, &EmptyExpressionError{Col: tok.pos, End: tok.text}
	}
	ex := Expr{
		n:     n,
		names: make([]string, 0, len(p.names)),
	}
	for k := range p.names {
		ex.names = append(ex.names, k)
	}
	sort.Strings(ex.names)
	return &ex, nil
}

// ParseString is a shortcut to parse a string expression.
func ParseString(src string, opts ...ParseOption) (*Expr, error) {
	return Parse(strings.NewReader(src), opts...)
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an error
// in contexts where empty subexpressions are illegal.
func parseterm(scan *lexer, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next(p.wseof)
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent, tokenOpen:
			// Juxtaposition is never a multiplication.
			return nil, &AdjacentError{Col: tok.pos, Text: tok.text}
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				return nil, emptyBefore(scan)
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("calc: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary,
// any encountered token must be valid as the start of a subexpression, and
// whitespace normally lexed as EOF is ignored.
func parselhs(scan *lexer, p *parsectx, until operator) (*node, error) {
	// Don't use EOF whitespace for LHS.
	tok, err := scan.next("")
	if err != nil {
		return nil, err
	}
	var n *node
	switch tok.kind {
	case tokenNum:
		n = &node{kind: nodeNum, name: tok.text}
	case tokenIdent:
		fn := p.funcs[tok.text]
		if fn == nil {
			p.names[tok.text] = true
			n = &node{kind: nodeName, name: tok.text}
			break
		}
		args, err := parsecall(scan, p, fn, tok.text)
		if err != nil {
			return nil, err
		}
		n = &node{kind: nodeCall, name: tok.text, fn: fn, right: args}
	case tokenOp:
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// x**-y -> x**(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			return nil, emptyBefore(scan)
		}
		n = &node{kind: prec.op, left: rhs}
	case tokenOpen:
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose {
			return nil, itShouldNotHaveEndedThisWay(end, true)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = rhs
	case tokenClose:
		// Let the caller decide whether an empty subexpression is legal.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		if p.ceof {
			scan.push(tok)
			return nil, nil
		}
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("calc: unknown token: " + tok.String())
	}
	return n, nil
}

// parsecall parses the arguments to a call of a given Func. A function that
// can be called without arguments may be written bare; otherwise an argument
// list must follow the name.
func parsecall(scan *lexer, p *parsectx, fn Func, name string) (*node, error) {
	// We respect whitespace here so that pi\nx doesn't string
	// together expressions.
	tok, err := scan.next(p.wseof)
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOpen {
		if !fn.CanCall(0) {
			return nil, &CallError{Col: tok.pos, Func: name}
		}
		scan.push(tok)
		return nil, nil
	}
	args, n, err := parsearglist(scan, p)
	if err != nil {
		return nil, err
	}
	end := scan.must()
	if end.kind != tokenClose {
		panic("calc: parsearglist ended on " + end.String() + " instead of close bracket")
	}
	if !fn.CanCall(n) {
		return nil, &CallError{Col: tok.pos, Func: name, Len: n}
	}
	return args, nil
}

// parsearglist parses a bracketed list of zero or more args.
func parsearglist(scan *lexer, p *parsectx) (*node, int, error) {
	var n node
	l := &n
	count := 0
	// Commas inside an argument list always separate arguments.
	ceof := p.ceof
	p.ceof = false
	defer func() { p.ceof = ceof }()
	for {
		rhs, err := parsearg(scan, p)
		if err != nil {
			return nil, 0, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			// Caller checks the close bracket.
			scan.push(end)
			if rhs == nil {
				// func() is allowed, but func(a,) isn't.
				if count != 0 {
					return nil, 0, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, 0, nil
			}
			l.right = &node{kind: nodeArg, left: rhs}
			return n.right, count + 1, nil
		case tokenSep:
			if rhs == nil {
				return nil, 0, &SeparatorError{Col: end.pos, Sep: end.text}
			}
			count++
			l.right = &node{kind: nodeArg, left: rhs}
			l = l.right
		case tokenEOF:
			return nil, 0, &BracketError{Col: end.pos, Left: OpenBracket, Right: ""}
		default:
			panic("calc: parsearglist ended on non-end token " + end.String())
		}
	}
}

// parsearg parses one function argument. A leading separator is an empty
// argument rather than an error, so that parsearglist can report it.
func parsearg(scan *lexer, p *parsectx) (*node, error) {
	tok, err := scan.next("")
	if err != nil {
		return nil, err
	}
	scan.push(tok)
	if tok.kind == tokenSep {
		return nil, nil
	}
	rhs, err := parseterm(scan, p, exprprec)
	if err != nil {
		// As a special case, reporting an unclosed bracket is more helpful
		// than an empty expression at the end of the input.
		if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
			err = &BracketError{Col: ee.Col, Left: OpenBracket}
		}
		return nil, err
	}
	return rhs, nil
}

// emptyBefore creates an error for an empty operand ending at the pushed
// token, leaving the token pushed.
func emptyBefore(scan *lexer) error {
	end := scan.must()
	scan.push(end)
	return &EmptyExpressionError{Col: end.pos, End: end.text}
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. open is whether the expression is
// inside a bracket.
func itShouldNotHaveEndedThisWay(tok lexToken, open bool) error {
	left := ""
	if open {
		left = OpenBracket
	}
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: left, Right: ""}
	case tokenClose:
		return &BracketError{Col: tok.pos, Left: left, Right: tok.text}
	case tokenSep:
		// Separator outside a function call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("calc: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the variable names used when evaluating the expression.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// String creates a string representation of the parsed expression with every
// term bracketed.
func (e *Expr) String() string {
	return e.n.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*":
		return operator{5, false, nodeMul}
	case "/":
		return operator{5, false, nodeDiv}
	case "//":
		return operator{5, false, nodeFloorDiv}
	case "%":
		return operator{5, false, nodeMod}
	case "**":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

// exprprec is the precedence required to parse an entire subexpression.
var exprprec = operator{-128, true, nodeNone}
