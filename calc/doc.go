// Package calc implements an arbitrary-precision calculator for arithmetic
// written the way a Python programmer would write it.
//
// "2**-1" is 0.5, "-2**2" is -4, "7//2" is 3 and "-7%3" is 2. Functions are
// called with brackets, "sqrt(16)", except for the constants pi and e. Two
// terms side by side, like "2(3)" or "2 3", are an error rather than a
// multiplication.
//
// Unlike Python, there is one kind of number. Every value, integers
// included, is rounded to the context's precision, and factorial accepts any
// integral value, so "factorial(4/2)" is 2 where Python 3.10 and later raise
// a TypeError.
//
// Evaluation never produces infinities or NaNs. Division by zero, arguments
// outside a function's domain, and results too large for the context are
// reported as errors, so a caller evaluating many generated expressions can
// tell the failures apart and move on.
package calc
