package runtime

import (
	"math"
	"strings"

	"github.com/cpplite-lang/cpplite/internal/ast"
	"github.com/cpplite-lang/cpplite/internal/types"
	"github.com/cpplite-lang/cpplite/internal/value"
)

// operandType returns the operand type a tagged operator accepts.
func operandType(op ast.Operator) types.Type {
	switch {
	case op >= ast.OpIntAdd && op <= ast.OpIntNeg, op == ast.OpI2F, op == ast.OpI2C:
		return types.Int
	case op >= ast.OpFloatAdd && op <= ast.OpFloatNeg, op == ast.OpF2I:
		return types.Float
	case op >= ast.OpCharLt && op <= ast.OpCharGe, op == ast.OpC2I:
		return types.Char
	case op >= ast.OpBoolLt && op <= ast.OpBoolNot, op == ast.OpAnd, op == ast.OpOr:
		return types.Bool
	}
	return types.Invalid
}

func badOperands(at ast.Node, op ast.Operator, vs ...value.Value) error {
	if !op.IsTagged() {
		return &OperatorError{Span: at.GetSpan(), Operator: op, Message: "operator was not type-tagged"}
	}

	kinds := make([]string, 0, len(vs))
	for _, v := range vs {
		kinds = append(kinds, v.Type().String())
	}
	return &OperatorError{Span: at.GetSpan(), Operator: op, Message: "cannot apply to " + strings.Join(kinds, " and ")}
}

func applyBinary(b *ast.Binary, left, right value.Value) (value.Value, error) {
	op := b.Operator
	want := operandType(op)
	if want == types.Invalid || left.Type() != want || right.Type() != want {
		return value.Value{}, badOperands(b, op, left, right)
	}

	switch want {
	case types.Int:
		return intBinary(b, left.AsInt(), right.AsInt())
	case types.Float:
		return floatBinary(b, left.AsFloat(), right.AsFloat())
	case types.Char:
		return compare(b, op-ast.OpCharLt, left.AsChar(), right.AsChar())
	default:
		return boolBinary(b, left.AsBool(), right.AsBool())
	}
}

// compare applies the relational operator at offset rel (< <= == != > >=).
func compare[T int32 | float32 | uint16](b *ast.Binary, rel ast.Operator, l, r T) (value.Value, error) {
	switch rel {
	case 0:
		return value.Bool(l < r), nil
	case 1:
		return value.Bool(l <= r), nil
	case 2:
		return value.Bool(l == r), nil
	case 3:
		return value.Bool(l != r), nil
	case 4:
		return value.Bool(l > r), nil
	case 5:
		return value.Bool(l >= r), nil
	}
	return value.Value{}, &OperatorError{Span: b.Span, Operator: b.Operator, Message: "not a comparison"}
}

func intBinary(b *ast.Binary, l, r int32) (value.Value, error) {
	switch b.Operator {
	case ast.OpIntAdd:
		return value.Int(l + r), nil
	case ast.OpIntSub:
		return value.Int(l - r), nil
	case ast.OpIntMul:
		return value.Int(l * r), nil
	case ast.OpIntDiv:
		if r == 0 {
			return value.Value{}, &DivisionByZeroError{Span: b.Span, Operator: b.Operator}
		}
		return value.Int(l / r), nil
	case ast.OpIntRem:
		if r == 0 {
			return value.Value{}, &DivisionByZeroError{Span: b.Span, Operator: b.Operator}
		}
		return value.Int(l % r), nil
	}
	return compare(b, b.Operator-ast.OpIntLt, l, r)
}

func floatBinary(b *ast.Binary, l, r float32) (value.Value, error) {
	switch b.Operator {
	case ast.OpFloatAdd:
		return value.Float(l + r), nil
	case ast.OpFloatSub:
		return value.Float(l - r), nil
	case ast.OpFloatMul:
		return value.Float(l * r), nil
	case ast.OpFloatDiv:
		return value.Float(l / r), nil
	case ast.OpFloatRem:
		return value.Float(float32(math.Mod(float64(l), float64(r)))), nil
	}
	return compare(b, b.Operator-ast.OpFloatLt, l, r)
}

func boolBinary(b *ast.Binary, l, r bool) (value.Value, error) {
	switch b.Operator {
	case ast.OpAnd:
		return value.Bool(l && r), nil
	case ast.OpOr:
		return value.Bool(l || r), nil
	case ast.OpBoolEq:
		return value.Bool(l == r), nil
	case ast.OpBoolNe:
		return value.Bool(l != r), nil
	}
	return value.Value{}, &OperatorError{Span: b.Span, Operator: b.Operator, Message: "bool values are not ordered"}
}

func applyUnary(u *ast.Unary, operand value.Value) (value.Value, error) {
	op := u.Operator
	if want := operandType(op); want == types.Invalid || operand.Type() != want {
		return value.Value{}, badOperands(u, op, operand)
	}

	switch op {
	case ast.OpIntNeg:
		return value.Int(-operand.AsInt()), nil
	case ast.OpFloatNeg:
		return value.Float(-operand.AsFloat()), nil
	case ast.OpBoolNot:
		return value.Bool(!operand.AsBool()), nil
	case ast.OpI2F:
		return value.Float(float32(operand.AsInt())), nil
	case ast.OpF2I:
		return value.Int(FloatToInt(operand.AsFloat())), nil
	case ast.OpC2I:
		return value.Int(int32(operand.AsChar())), nil
	case ast.OpI2C:
		return value.Char(uint16(operand.AsInt())), nil
	}
	return value.Value{}, badOperands(u, op, operand)
}

// FloatToInt truncates f toward zero, maps NaN to 0 and saturates at the
// int32 bounds.
func FloatToInt(f float32) int32 {
	switch {
	case math.IsNaN(float64(f)):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}
