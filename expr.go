// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package caterpillar

import (
	"fmt"
	"math"
	"strings"
)

// Expr is a deferred value: something that must be evaluated against
// a Layer to produce a concrete value. Length specs, conditions,
// switch selectors and offsets all accept an Expr (or a plain value,
// or a func(*Layer) (any, error)) wherever callers pass "callable".
type Expr interface {
	Eval(l *Layer) (any, error)
}

// Literal is an Expr that always evaluates to the same value.
type Literal struct{ Value any }

func (lit Literal) Eval(*Layer) (any, error) { return lit.Value, nil }

// Fn adapts a plain Go function into an Expr, for the
// "callable" length/condition/selector forms.
type Fn func(l *Layer) (any, error)

func (f Fn) Eval(l *Layer) (any, error) { return f(l) }

// Path is a ContextPath: a dotted name resolved against the layer
// chain, then against state globals.
type Path struct {
	segments []string
}

// NewPath splits a dotted name into a Path expression, e.g.
// NewPath("header.length") or NewPath("<root>.version").
func NewPath(dotted string) Path {
	return Path{segments: strings.Split(dotted, ".")}
}

func (p Path) Eval(l *Layer) (any, error) {
	return resolvePath(l, p.segments)
}

// Operator enumerates the arithmetic/comparison/bitwise/logical
// operators an Expr can apply.
type Operator int

const (
	OpLT Operator = iota
	OpLE
	OpEQ
	OpNE
	OpGT
	OpGE
	OpAdd
	OpSub
	OpMul
	OpFloorDiv
	OpDiv
	OpMod
	OpPow
	OpAt
	OpAnd
	OpOr
	OpXor
	OpBitAnd
	OpBitOr
	OpShl
	OpShr

	OpNeg
	OpPos
	OpNot
)

// UnaryExpr lazily evaluates E then applies Op.
type UnaryExpr struct {
	Op Operator
	E  any
}

func (u UnaryExpr) Eval(l *Layer) (any, error) {
	v, err := evalOperand(l, u.E)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case OpNeg:
		return arithNeg(v)
	case OpPos:
		return v, nil
	case OpNot:
		return !truthy(v), nil
	default:
		return nil, fmt.Errorf("not a unary operator: %v", u.Op)
	}
}

// BinaryExpr lazily evaluates L and R then applies Op.
type BinaryExpr struct {
	Op   Operator
	L, R any
}

func (b BinaryExpr) Eval(l *Layer) (any, error) {
	lv, err := evalOperand(l, b.L)
	if err != nil {
		return nil, err
	}
	// short-circuit logical operators
	if b.Op == OpAnd && !truthy(lv) {
		return lv, nil
	}
	if b.Op == OpOr && truthy(lv) {
		return lv, nil
	}
	rv, err := evalOperand(l, b.R)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case OpAnd, OpOr:
		return rv, nil
	case OpLT, OpLE, OpEQ, OpNE, OpGT, OpGE:
		return compare(b.Op, lv, rv)
	default:
		return arith(b.Op, lv, rv)
	}
}

// evalOperand resolves v, which may be an Expr, a
// func(*Layer)(any, error), or a plain value.
func evalOperand(l *Layer, v any) (any, error) {
	switch t := v.(type) {
	case Expr:
		return t.Eval(l)
	case func(*Layer) (any, error):
		return t(l)
	default:
		return v, nil
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []byte:
		return len(t) != 0
	default:
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func isFloaty(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}

func arithNeg(v any) (any, error) {
	if isFloaty(v) {
		f, _ := asFloat(v)
		return -f, nil
	}
	if i, ok := asInt(v); ok {
		return -i, nil
	}
	return nil, fmt.Errorf("cannot negate %T", v)
}

func compare(op Operator, l, r any) (any, error) {
	if ls, ok := l.(string); ok {
		rs, ok2 := r.(string)
		if !ok2 {
			return nil, fmt.Errorf("cannot compare string with %T", r)
		}
		switch op {
		case OpLT:
			return ls < rs, nil
		case OpLE:
			return ls <= rs, nil
		case OpEQ:
			return ls == rs, nil
		case OpNE:
			return ls != rs, nil
		case OpGT:
			return ls > rs, nil
		case OpGE:
			return ls >= rs, nil
		}
	}
	lf, ok1 := asFloat(l)
	rf, ok2 := asFloat(r)
	if !ok1 || !ok2 {
		switch op {
		case OpEQ:
			return l == r, nil
		case OpNE:
			return l != r, nil
		default:
			return nil, fmt.Errorf("cannot compare %T with %T", l, r)
		}
	}
	switch op {
	case OpLT:
		return lf < rf, nil
	case OpLE:
		return lf <= rf, nil
	case OpEQ:
		return lf == rf, nil
	case OpNE:
		return lf != rf, nil
	case OpGT:
		return lf > rf, nil
	case OpGE:
		return lf >= rf, nil
	default:
		return nil, fmt.Errorf("not a comparison operator: %v", op)
	}
}

func arith(op Operator, l, r any) (any, error) {
	switch op {
	case OpBitAnd, OpBitOr, OpXor, OpShl, OpShr, OpFloorDiv, OpMod:
		li, ok1 := asInt(l)
		ri, ok2 := asInt(r)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("operator %v requires integer operands, got %T and %T", op, l, r)
		}
		switch op {
		case OpBitAnd:
			return li & ri, nil
		case OpBitOr:
			return li | ri, nil
		case OpXor:
			return li ^ ri, nil
		case OpShl:
			return li << uint(ri), nil
		case OpShr:
			return li >> uint(ri), nil
		case OpFloorDiv:
			if ri == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return int64(math.Floor(float64(li) / float64(ri))), nil
		case OpMod:
			if ri == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return li % ri, nil
		}
	}
	if !isFloaty(l) && !isFloaty(r) {
		li, ok1 := asInt(l)
		ri, ok2 := asInt(r)
		if ok1 && ok2 {
			switch op {
			case OpAdd:
				return li + ri, nil
			case OpSub:
				return li - ri, nil
			case OpMul, OpAt:
				return li * ri, nil
			case OpPow:
				return int64(math.Pow(float64(li), float64(ri))), nil
			case OpDiv:
				if ri == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				return float64(li) / float64(ri), nil
			}
		}
	}
	lf, ok1 := asFloat(l)
	rf, ok2 := asFloat(r)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("operator %v requires numeric operands, got %T and %T", op, l, r)
	}
	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul, OpAt:
		return lf * rf, nil
	case OpDiv:
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	case OpPow:
		return math.Pow(lf, rf), nil
	default:
		return nil, fmt.Errorf("not a binary operator: %v", op)
	}
}
