package calc

import (
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// diff finds the first in-order node of n that differs from m, or nil, nil if
// the two ASTs are equal. If any node is nodeNone, it is returned.
func (n *node) diff(m *node) (*node, *node) {
	if n == nil {
		if m != nil {
			return n, m
		}
		return nil, nil
	}
	if m == nil {
		return n, m
	}
	if n.kind == nodeNone || m.kind == nodeNone {
		return n, m
	}
	if n.kind != m.kind {
		return n, m
	}
	switch n.kind {
	case nodeNum, nodeName:
		if n.name != m.name {
			return n, m
		}
	case nodeCall:
		if n.name != m.name {
			return n, m
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeArg, nodeAdd, nodeSub, nodeMul, nodeDiv, nodeFloorDiv, nodeMod, nodePow:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeNeg, nodeNop:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
	default:
		panic(fmt.Errorf("invalid node kind: n=%+v m=%+v", n, m))
	}
	return nil, nil
}

// haskind checks whether a parse tree contains a node of the given type.
func (n *node) haskind(k nodeKind) bool {
	if n == nil {
		return false
	}
	if n.kind == k {
		return true
	}
	if n.left.haskind(k) {
		return true
	}
	return n.right.haskind(k)
}

type mockfn struct {
	can []int
}

func mockFunc(n ...int) Func {
	return mockfn{can: n}
}

func (f mockfn) Call(ctx *Context, invoc []*big.Float, r *big.Float) error {
	return nil
}

func (f mockfn) CanCall(n int) bool {
	for _, v := range f.can {
		if v == n {
			return true
		}
	}
	return false
}

var testfns = map[string]Func{
	"zero":    mockFunc(0),
	"one":     mockFunc(1),
	"zeroone": mockFunc(0, 1),
	"five":    mockFunc(5),
}

func TestOpPrecsExist(t *testing.T) {
	for _, r := range Operators {
		b := binop(string(r))
		u := unop(string(r))
		if b.op == nodeNone && u.op == nodeNone {
			t.Errorf("no operator for %c", r)
		}
	}
	for _, s := range []string{"**", "//"} {
		if binop(s).op == nodeNone {
			t.Errorf("no binary operator for %s", s)
		}
	}
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"paren", "(x)", "x"},
		{"multi", "((((x))))", "x"},
		{"spaces", " x\t+\ny ", "x+y"},

		{"plus", "+x", "(+(x))"},
		{"neg", "-x", "(-(x))"},
		{"negnum", "-1", "(-(1))"},
		{"add", "x+y", "((x)+(y))"},
		{"sub", "x-y", "((x)-(y))"},
		{"mul", "x*y", "((x)*(y))"},
		{"div", "x/y", "((x)/(y))"},
		{"floordiv", "x//y", "((x)//(y))"},
		{"mod", "x%y", "((x)%(y))"},
		{"pow", "x**y", "((x)**(y))"},

		{"call0", "zero()", "zero"},
		{"call0-add", "zero+x", "(zero)+x"},
		{"call01-bare", "zeroone", "zeroone()"},
		{"call1", "one(x)", "one((x))"},
		{"call1-add", "one(x)+y", "(one(x))+y"},
		{"call1-pow", "one(x)**y", "(one(x))**y"},
		{"call1-nested", "one(one(x))", "one((one((x))))"},
		{"call5", "five(a, b, c, d, e)", "five(a,b,c,d,e)"},

		{"add4", "w+x+y+z", "((w+x)+y)+z"},
		{"sub4", "w-x-y-z", "((w-x)-y)-z"},
		{"mul4", "w*x*y*z", "((w*x)*y)*z"},
		{"div4", "w/x/y/z", "((w/x)/y)/z"},
		{"floordiv4", "w//x//y//z", "((w//x)//y)//z"},
		{"mod4", "w%x%y%z", "((w%x)%y)%z"},
		{"pow4", "w**x**y**z", "w**(x**(y**z))"},

		{"negpow", "-1**n", "-(1**n)"},
		{"desc", "w**x*y+z", "((w**x)*y)+z"},
		{"asc", "w+x*y**z", "w+(x*(y**z))"},
		{"descasc", "w**x*y+z+a*b**c", "(((w**x)*y)+z)+a*(b**c)"},
		{"ascdesc", "w+x*y**z**a*b+c", "w+((x*(y**(z**a)))*b)+c"},
		{"mulmod", "w%x*y//z", "((w%x)*y)//z"},
		{"negneg", "--x", "-(-x)"},
		{"negsub", "-x-x", "(-x)-x"},
		{"negmul", "-x*y", "(-x)*y"},
		{"subneg", "x--y", "x-(-y)"},
		{"powneg", "x**-1", "x**(-1)"},
		{"pownegpow", "x**-y**-z", "x**(-(y**(-z)))"},
		{"pownegneg", "x**--y", "x**(-(-y))"},
	}
	preset := ParsingPreset(DisableDefaultFuncs(), ParseFuncs(testfns))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(strings.NewReader(c.a), preset)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.a, err)
			}
			b, err := Parse(strings.NewReader(c.b), preset)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.b, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.a, a.n, d, c.b, b.n, e)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		name string
		src  string
		n    *node
	}{
		{
			name: "call01-paren",
			src:  "zeroone(x)",
			n: &node{
				kind: nodeCall,
				name: "zeroone",
				right: &node{
					kind: nodeArg,
					left: &node{kind: nodeName, name: "x"},
				},
			},
		},
		{
			name: "call5",
			src:  "five(a, b, c, d, e)",
			n: &node{
				kind: nodeCall,
				name: "five",
				right: &node{
					kind: nodeArg,
					left: &node{kind: nodeName, name: "a"},
					right: &node{
						kind: nodeArg,
						left: &node{kind: nodeName, name: "b"},
						right: &node{
							kind: nodeArg,
							left: &node{kind: nodeName, name: "c"},
							right: &node{
								kind: nodeArg,
								left: &node{kind: nodeName, name: "d"},
								right: &node{
									kind: nodeArg,
									left: &node{kind: nodeName, name: "e"},
								},
							},
						},
					},
				},
			},
		},
		{
			name: "floordiv",
			src:  "7//2",
			n: &node{
				kind:  nodeFloorDiv,
				left:  &node{kind: nodeNum, name: "7"},
				right: &node{kind: nodeNum, name: "2"},
			},
		},
		{
			name: "negpow",
			src:  "-2**2",
			n: &node{
				kind: nodeNeg,
				left: &node{
					kind:  nodePow,
					left:  &node{kind: nodeNum, name: "2"},
					right: &node{kind: nodeNum, name: "2"},
				},
			},
		},
	}
	preset := ParsingPreset(DisableDefaultFuncs(), ParseFuncs(testfns))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(strings.NewReader(c.src), preset)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			d, e := a.n.diff(c.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\twant %v which has %v\n\tgot  %v which has %v from %q", c.n, e, a.n, d, c.src)
			}
		})
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"paren", "(x)"},
		{"multi", "((((x))))"},

		{"plus", "+x"},
		{"neg", "-x"},
		{"negnum", "-1"},
		{"add", "x+y"},
		{"sub", "x-y"},
		{"mul", "x*y"},
		{"div", "x/y"},
		{"floordiv", "x//y"},
		{"mod", "x%y"},
		{"pow", "x**y"},

		{"call0", "zero()"},
		{"call0-bare", "zero"},
		{"call1", "one(x)"},
		{"call1-add", "one(x) + y"},
		{"call5", "five(a, b, c, d, e)"},

		{"add4", "w+x+y+z"},
		{"pow4", "w**x**y**z"},
		{"negpow", "-1**n"},
		{"descasc", "w**x*y+z+a*b**c"},
		{"ascdesc", "w+x*y**z**a*b+c"},
		{"negneg", "--x"},
		{"powneg", "x**-1"},
		{"pownegpow", "x**-y**-z"},
		{"decimals", "1.5e3 + .25 - 00"},
	}
	preset := ParsingPreset(DisableDefaultFuncs(), ParseFuncs(testfns))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(strings.NewReader(c.src), preset)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			s := a.String()
			b, err := Parse(strings.NewReader(s), preset)
			if err != nil {
				t.Fatalf("%q -> %q failed to parse: %v", c.src, s, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.src, a.n, d, s, b.n, e)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		res  []string
		excl []string
	}{
		{"empty", "", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, []string{`(?i)\bend\b`}},
		{"emptyparen", "()", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyoperand", "x*", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"emptyunary", "x*-", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"left", "(x", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"right", "x)", new(BracketError), []string{`(?i)\bbracket\b`, `\)`}, nil},
		{"nonunary", "*x", new(OperatorError), []string{`(?i)\bunary\b`, `(?i)\bop`, `\*`}, nil},
		{"triplestar", "2***3", new(OperatorError), []string{`(?i)\bunary\b`, `\*`}, nil},
		{"sep", "x, y", new(SeparatorError), []string{`","`}, nil},
		{"sepbrackets", "(x, y)", new(SeparatorError), []string{`","`}, nil},
		{"call1-0", "one()", new(CallError), []string{`(?i)\bcall\b`, `\bone\b`, `\b0\b`}, nil},
		{"call1-eof", "one", new(CallError), []string{`(?i)\bcall\b`, `\bone\b`, `\b0\b`}, nil},
		{"call1-pareneof", "one(", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"call1-2", "one(x, y)", new(CallError), []string{`(?i)\bcall\b`, `\bone\b`, `\b2\b`}, nil},
		{"call1-empty", "one(, x)", new(SeparatorError), []string{`","`}, nil},
		{"call1-empty2", "one(x,)", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"call5-4", "five(a, b, c, d)", new(CallError), []string{`(?i)\bcall\b`, `\bfive\b`, `\b4\b`}, nil},
		{"call5-bare", "five x", new(CallError), []string{`(?i)\bcall\b`, `\bfive\b`, `\b0\b`}, nil},
		{"call5-empty", "five(a,,,,b)", new(SeparatorError), []string{`","`}, nil},
		{"lexer", "2**exp(-$)", new(LexError), []string{`\$`}, nil},
		{"leadingzero", "01+1", new(LexError), []string{`(?i)\bnumber\b`, `01`}, nil},

		{"adjacent-num", "2 3", new(AdjacentError), []string{`(?i)\boperator\b`, `"3"`}, nil},
		{"adjacent-paren", "2(3)", new(AdjacentError), []string{`(?i)\boperator\b`, `"\("`}, nil},
		{"adjacent-name", "x y", new(AdjacentError), []string{`(?i)\boperator\b`, `"y"`}, nil},
		{"adjacent-call", "one(x)(y)", new(AdjacentError), []string{`(?i)\boperator\b`}, nil},

		// Cases identified with fuzzing.
		{"op-paren", "(b*)", new(EmptyExpressionError), []string{`\)`}, nil},
		{"haskell", "(+)", new(EmptyExpressionError), []string{`\)`}, nil},
	}
	preset := ParsingPreset(DisableDefaultFuncs(), ParseFuncs(testfns))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(strings.NewReader(c.src), preset)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a.n)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Errorf("wrong error type from %q: want %T, got %T", c.src, c.err, err)
			}
			if err == nil {
				return
			}
			msg := err.Error()
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
			for _, re := range c.excl {
				if regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q matches %s", msg, re)
				}
			}
		})
	}
}

func TestDisableDefaultFuncs(t *testing.T) {
	cases := []string{"exp", "ln", "log", "sqrt", "floor", "ceil", "abs", "neg", "factorial", "pi", "e"}
	// Check that we cover every case.
	for k := range globalfuncs {
		found := false
		for _, c := range cases {
			found = found || c == k
		}
		if !found {
			t.Fatalf("no test case for %q", k)
		}
	}

	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			src := c + " + x"
			a, err := Parse(strings.NewReader(src), DisableDefaultFuncs())
			if err != nil {
				t.Fatalf("%q failed to parse: %v", src, err)
			}
			if a.n.haskind(nodeCall) {
				t.Errorf("call expression in %v", a.n)
			}
			if v := a.Vars(); !reflect.DeepEqual(v, []string{c, "x"}) && !reflect.DeepEqual(v, []string{"x", c}) {
				t.Errorf("wrong variables %q", v)
			}
		})
	}
}

func TestParseFuncOverride(t *testing.T) {
	// Overriding one name must not leak into later parses.
	a, err := ParseString("sqrt(x)", ParseFunc("sqrt", nil))
	if err == nil {
		t.Fatalf("sqrt as variable should not take arguments, got %v", a)
	}
	if _, ok := err.(*AdjacentError); !ok {
		t.Errorf("wrong error %#v", err)
	}
	b, err := ParseString("sqrt(x)")
	if err != nil {
		t.Fatalf("default sqrt broken after override: %v", err)
	}
	if !b.n.haskind(nodeCall) {
		t.Errorf("no call in %v", b.n)
	}
	if globalfuncs["sqrt"] == nil {
		t.Error("override removed the default function")
	}
}

func TestStopOn(t *testing.T) {
	cases := []struct {
		name string
		src  string
		stop string
		good [][]nodeKind
		bad  [][]nodeKind
		errs []error
	}{
		{"newline", "x\nx", "\n", [][]nodeKind{{nodeName}, {nodeName}}, [][]nodeKind{{nodeMul}, {nodeMul}}, nil},
		{"comma", "x,x", ",", [][]nodeKind{{nodeName}, {nodeName}}, [][]nodeKind{{nodeCall}, {nodeCall}}, nil},
		{"num", "1\n1", "\n", [][]nodeKind{{nodeNum}, {nodeNum}}, [][]nodeKind{{nodeAdd}, {nodeAdd}}, nil},
		{"multinl", "x\n\nx", "\n", [][]nodeKind{{}, {}}, [][]nodeKind{{nodeMul}, {nodeMul}}, nil},
		{"afterop", "x+\ny\nz", "\n", [][]nodeKind{{nodeAdd}, {nodeName}}, [][]nodeKind{{}, {nodeAdd}}, nil},
		{"call0", "zero\nx", "\n", [][]nodeKind{{nodeCall}, {nodeName}}, [][]nodeKind{{nodeArg, nodeName}, {nodeCall}}, nil},
		{"call1-err", "one\nx", "\n", [][]nodeKind{{}, {nodeName}}, [][]nodeKind{{}, {}}, []error{new(CallError)}},
		{"call1-brackets", "one(\nx)", "\n", [][]nodeKind{{nodeArg}}, [][]nodeKind{{}}, nil},
		{"call5-commas", "five(a,b,c,d,e),x", ",", [][]nodeKind{{nodeCall}, {nodeName}}, [][]nodeKind{{}, {nodeCall}}, nil},
		{"start,", ",", ",", [][]nodeKind{{}, {}}, [][]nodeKind{{}, {}}, []error{new(EmptyExpressionError), new(EmptyExpressionError)}},
	}
	preset := ParsingPreset(DisableDefaultFuncs(), ParseFuncs(testfns))
	for _, c := range cases {
		if len(c.good) != len(c.bad) {
			t.Fatalf("case %q has different sizes of good and bad: %v vs %v", c.name, c.good, c.bad)
		}
		t.Run(c.name, func(t *testing.T) {
			src := strings.NewReader(c.src)
			for i := range c.good {
				a, err := Parse(src, preset, StopOn([]rune(c.stop)...))
				if err != nil {
					switch {
					case i >= len(c.errs), c.errs[i] == nil:
						t.Errorf("%q iter %d didn't parse: %v", c.src, i, err)
					case reflect.TypeOf(err) != reflect.TypeOf(c.errs[i]):
						t.Errorf("%q iter %d gave wrong error: want %T, got %#v", c.src, i, c.errs[i], err)
					}
					continue
				}
				for _, good := range c.good[i] {
					if !a.n.haskind(good) {
						t.Errorf("%q iter %d didn't have %v", c.src, i, good)
					}
				}
				for _, bad := range c.bad[i] {
					if a.n.haskind(bad) {
						t.Errorf("%q iter %d had %v", c.src, i, bad)
					}
				}
			}
			a, err := Parse(src, preset)
			if _, ok := err.(*EmptyExpressionError); !ok {
				t.Errorf("%q after %d iters parsed with error %#v and parse tree %v", c.src, len(c.good), err, a)
			}
		})
	}
}

func TestStopOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("StopOn accepted a letter")
		}
	}()
	StopOn('x')
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "w**x*y+z+a*b**c"},
		{"descasc-parens", "(((w**x)*y)+z)+a*(b**c)"},
		{"ascdesc", "w+x*y**z**a*b+c"},
		{"ascdesc-parens", "w+((x*(y**(z**a)))*b)+c"},
		{"descasc-nums", "1**1.1*1.1e1+1.1e-1+.1*2**3"},
		{"ascdesc-nums", "1+1.1*1.1e1**1.1e-1**.1*0//7"},
		{"call0", "zero()"},
		{"call0-bare", "zero"},
		{"call1", "one(x)"},
		{"call5", "five(a, b, c, d, e)"},
	}
	preset := ParsingPreset(DisableDefaultFuncs(), ParseFuncs(testfns))
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			var src strings.Reader
			for i := 0; i < b.N; i++ {
				src.Reset(c.src)
				Parse(&src, preset)
			}
		})
	}
}
