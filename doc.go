// Package equations finds the ways a set of numbers can be combined into
// arithmetic expressions that equal a goal.
//
// For operands 1, 2, and 3, the candidates include "1+2+3", "(1+2)*3", and
// "3/(2-1)": every distinct order of the operands, every choice of operator
// between them, and every useful placement of brackets. A unary function such
// as sqrt or factorial may also wrap bracketed groups, the whole expression,
// or, with Singles, lone operands.
//
// Candidates are plain text, evaluated by package calc with the rules of
// Python arithmetic, except that integers are rounded like floats and
// factorial takes integral floats. A candidate that fails to evaluate, say by
// dividing by zero, is skipped and counted in the Result. Only an invalid
// request is an error.
//
// The number of candidates grows very quickly with the number of operands.
// MaxCandidates bounds the work, and every blocking method takes a context
// for cancellation.
package equations
