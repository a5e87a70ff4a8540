package calc

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	name string
	fn   Func

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // push num
	nodeName // push lookup(name)

	nodeCall // name is Func to call, right is link to nodeArg unless niladic
	nodeArg  // eval left, right is link to next arg

	nodeNeg      // evaluate left, then negate
	nodeAdd      // evaluate left, add right
	nodeSub      // evaluate left, sub right
	nodeMul      // evaluate left, mul right
	nodeDiv      // evaluate left, div by right
	nodeFloorDiv // evaluate left, floor div by right
	nodeMod      // evaluate left, mod by right
	nodePow      // evaluate left, exp by right
	nodeNop      // evaluate left
)

var nodeNames = [...]string{
	nodeNone:     "None",
	nodeNum:      "Num",
	nodeName:     "Name",
	nodeCall:     "Call",
	nodeArg:      "Arg",
	nodeNeg:      "Neg",
	nodeAdd:      "Add",
	nodeSub:      "Sub",
	nodeMul:      "Mul",
	nodeDiv:      "Div",
	nodeFloorDiv: "FloorDiv",
	nodeMod:      "Mod",
	nodePow:      "Pow",
	nodeNop:      "Nop",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeNames[k]
}

// binsyms maps binary node kinds to the operator that produces them.
var binsyms = map[nodeKind]string{
	nodeAdd:      " + ",
	nodeSub:      " - ",
	nodeMul:      " * ",
	nodeDiv:      " / ",
	nodeFloorDiv: " // ",
	nodeMod:      " % ",
	nodePow:      " ** ",
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

// fmt writes n fully bracketed, so that the output parses back to the same
// tree.
func (n *node) fmt(b *strings.Builder) {
	b.WriteByte('(')
	defer b.WriteByte(')')
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b)
		}
		b.WriteByte('$')
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		n.fmtargs(b)
	case nodeArg:
		// Args usually only appear inside calls, which are handled by fmtargs.
		b.WriteByte(':')
		n.left.fmt(b)
		if n.right != nil {
			n.right.fmt(b)
		}
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b)
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeFloorDiv, nodeMod, nodePow:
		n.left.fmt(b)
		b.WriteString(binsyms[n.kind])
		n.right.fmt(b)
	default:
		panic("calc: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func (n *node) fmtargs(b *strings.Builder) {
	if n.right == nil {
		// Niladic call.
		return
	}
	b.WriteByte('(')
	defer b.WriteByte(')')
	n = n.right
	n.left.fmt(b)
	for n.right != nil {
		n = n.right
		b.WriteString(", ")
		n.left.fmt(b)
	}
}
