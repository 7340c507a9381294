package feval

import (
	"fmt"

	"github.com/mediocregopher/florun/fderiv"
	"github.com/mediocregopher/florun/fsym"
)

// compile turns an AST node into an fderiv.Expr built purely out of
// Pure/Bind/ReadState, per the evaluator contract's "pure, bind, read_state"
// primitive module (SPEC_FULL §6).
func compile(n *node) fderiv.Expr[float64] {
	switch n.kind {
	case kindNumber:
		return fderiv.Pure(n.num)
	case kindIdent:
		return fderiv.ReadState[float64](fsym.WithName(n.ident))
	case kindNeg:
		operand := compile(n.operand)
		return fderiv.Bind(operand, func(v float64) fderiv.Expr[float64] {
			return fderiv.Pure(-v)
		})
	case kindBinOp:
		left := compile(n.left)
		right := compile(n.right)
		op := n.op
		return fderiv.Bind(left, func(a float64) fderiv.Expr[float64] {
			return fderiv.Bind(right, func(b float64) fderiv.Expr[float64] {
				return fderiv.Pure(applyOp(op, a, b))
			})
		})
	default:
		panic(fmt.Sprintf("feval: unknown node kind %d", n.kind))
	}
}

func applyOp(op byte, a, b float64) float64 {
	switch op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	case '/':
		return a / b
	default:
		panic(fmt.Sprintf("feval: unknown operator %q", op))
	}
}
