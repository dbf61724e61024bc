package evaluator

import (
	"fmt"
	"loquora/internal/ast"
	"loquora/internal/object"
	"math"
	"strings"
)

func (in *Interpreter) eval(expr ast.Expression) (object.Object, error) {
	switch node := expr.(type) {
	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}, nil
	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}, nil
	case *ast.StringLiteral:
		return &object.String{Value: node.Value}, nil
	case *ast.CharLiteral:
		return &object.Char{Value: node.Value}, nil
	case *ast.Boolean:
		return object.NativeBoolToBooleanObject(node.Value), nil
	case *ast.Null:
		return object.NULL, nil

	case *ast.Identifier:
		val, ok := in.env.Get(node.Value)
		if !ok {
			return nil, located(object.NewError(object.UndefinedVariable, node.Value), node)
		}
		return val, nil

	case *ast.PrefixExpression:
		right, err := in.eval(node.Right)
		if err != nil {
			return nil, err
		}
		val, err := evalPrefix(node.Operator, right)
		if err != nil {
			return nil, located(err, node)
		}
		return val, nil

	case *ast.InfixExpression:
		return in.evalInfix(node)

	case *ast.TernaryExpression:
		cond, err := in.eval(node.Condition)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(cond) {
			return in.eval(node.Consequence)
		}
		return in.eval(node.Alternative)

	case *ast.QuaternaryExpression:
		cond, err := in.eval(node.Condition)
		if err != nil {
			return nil, err
		}
		if isNull(cond) {
			return in.eval(node.OnNull)
		}
		if object.IsTruthy(cond) {
			return in.eval(node.OnTrue)
		}
		return in.eval(node.OnFalse)

	case *ast.PropertyExpression:
		target, err := in.eval(node.Object)
		if err != nil {
			return nil, err
		}
		val, err := property(target, node.Property)
		if err != nil {
			return nil, located(err, node)
		}
		return val, nil

	case *ast.CallExpression:
		return in.evalCall(node)

	case *ast.ObjectInitExpression:
		return in.evalObjectInit(node)
	}

	return nil, located(object.NewCustomError("cannot evaluate %T", expr), expr)
}

func isNull(obj object.Object) bool {
	_, ok := obj.(*object.Null)
	return ok
}

func property(target object.Object, name string) (object.Object, error) {
	switch t := target.(type) {
	case *object.Instance:
		if val, ok := t.Fields[name]; ok {
			return val, nil
		}
		if t.Def != nil && t.Declares(name) {
			return object.NULL, nil
		}
		return nil, object.NewError(object.FieldNotFound, t.TypeName+"."+name)
	case *object.Module:
		if val, ok := t.Member(name); ok {
			return val, nil
		}
		return nil, &object.RuntimeError{Kind: object.FieldNotFound, Name: name, Message: "not exported by " + t.Path}
	}
	return nil, &object.RuntimeError{Kind: object.NotAnObject, Name: name, Message: "value is " + string(target.Type())}
}

func evalPrefix(op string, right object.Object) (object.Object, error) {
	switch op {
	case "!":
		return object.NativeBoolToBooleanObject(!object.IsTruthy(right)), nil
	case "-":
		switch r := right.(type) {
		case *object.Integer:
			return &object.Integer{Value: -r.Value}, nil
		case *object.Float:
			return &object.Float{Value: -r.Value}, nil
		}
		return nil, object.NewTypeMismatch("number", string(right.Type()))
	case "+":
		switch right.(type) {
		case *object.Integer, *object.Float:
			return right, nil
		}
		return nil, object.NewTypeMismatch("number", string(right.Type()))
	case "~":
		if r, ok := right.(*object.Integer); ok {
			return &object.Integer{Value: ^r.Value}, nil
		}
		return nil, object.NewTypeMismatch("int", string(right.Type()))
	}
	return nil, object.NewCustomError("unknown operator: %s%s", op, right.Type())
}

func (in *Interpreter) evalInfix(node *ast.InfixExpression) (object.Object, error) {
	left, err := in.eval(node.Left)
	if err != nil {
		return nil, err
	}

	// short-circuit forms return the deciding operand
	switch node.Operator {
	case "&&":
		if !object.IsTruthy(left) {
			return left, nil
		}
		return in.eval(node.Right)
	case "||":
		if object.IsTruthy(left) {
			return left, nil
		}
		return in.eval(node.Right)
	case "??":
		if !isNull(left) {
			return left, nil
		}
		return in.eval(node.Right)
	}

	right, err := in.eval(node.Right)
	if err != nil {
		return nil, err
	}
	val, err := evalBinary(node.Operator, left, right)
	if err != nil {
		return nil, located(err, node)
	}
	return val, nil
}

func evalBinary(op string, left, right object.Object) (object.Object, error) {
	switch op {
	case "==":
		return object.NativeBoolToBooleanObject(object.Equal(left, right)), nil
	case "!=":
		return object.NativeBoolToBooleanObject(!object.Equal(left, right)), nil
	case "@":
		return left, nil
	}

	switch l := left.(type) {
	case *object.Integer:
		switch r := right.(type) {
		case *object.Integer:
			return evalIntegerInfix(op, l.Value, r.Value)
		case *object.Float:
			return evalFloatInfix(op, float64(l.Value), r.Value)
		}
	case *object.Float:
		switch r := right.(type) {
		case *object.Integer:
			return evalFloatInfix(op, l.Value, float64(r.Value))
		case *object.Float:
			return evalFloatInfix(op, l.Value, r.Value)
		}
	case *object.String:
		if r, ok := right.(*object.String); ok {
			return evalStringInfix(op, l.Value, r.Value)
		}
	case *object.Char:
		if r, ok := right.(*object.Char); ok {
			if cmp, ok := compare(op, strings.Compare(string(l.Value), string(r.Value))); ok {
				return cmp, nil
			}
		}
	}
	return nil, operandMismatch(op, left, right)
}

func operandMismatch(op string, left, right object.Object) *object.RuntimeError {
	return object.NewTypeMismatch(
		fmt.Sprintf("operands supporting %s", op),
		fmt.Sprintf("%s and %s", left.Type(), right.Type()),
	)
}

// compare maps a three-way comparison result onto a relational operator.
func compare(op string, c int) (object.Object, bool) {
	switch op {
	case "<":
		return object.NativeBoolToBooleanObject(c < 0), true
	case ">":
		return object.NativeBoolToBooleanObject(c > 0), true
	case "<=":
		return object.NativeBoolToBooleanObject(c <= 0), true
	case ">=":
		return object.NativeBoolToBooleanObject(c >= 0), true
	}
	return nil, false
}

func evalIntegerInfix(op string, l, r int64) (object.Object, error) {
	switch op {
	case "+":
		return &object.Integer{Value: l + r}, nil
	case "-":
		return &object.Integer{Value: l - r}, nil
	case "*":
		return &object.Integer{Value: l * r}, nil
	case "/":
		if r == 0 {
			return nil, object.NewError(object.DivisionByZero, "")
		}
		return &object.Integer{Value: l / r}, nil
	case "%":
		if r == 0 {
			return nil, object.NewError(object.DivisionByZero, "")
		}
		return &object.Integer{Value: l % r}, nil
	case "&":
		return &object.Integer{Value: l & r}, nil
	case "|":
		return &object.Integer{Value: l | r}, nil
	case "^":
		return &object.Integer{Value: l ^ r}, nil
	case "<<", ">>":
		if r < 0 {
			return nil, object.NewInvalidArguments("negative shift count %d", r)
		}
		if op == "<<" {
			return &object.Integer{Value: l << uint64(r)}, nil
		}
		return &object.Integer{Value: l >> uint64(r)}, nil
	}
	c := 0
	if l < r {
		c = -1
	} else if l > r {
		c = 1
	}
	if cmp, ok := compare(op, c); ok {
		return cmp, nil
	}
	return nil, object.NewTypeMismatch("operands supporting "+op, "int and int")
}

func evalFloatInfix(op string, l, r float64) (object.Object, error) {
	switch op {
	case "+":
		return &object.Float{Value: l + r}, nil
	case "-":
		return &object.Float{Value: l - r}, nil
	case "*":
		return &object.Float{Value: l * r}, nil
	case "/":
		if r == 0 {
			return nil, object.NewError(object.DivisionByZero, "")
		}
		return &object.Float{Value: l / r}, nil
	case "%":
		if r == 0 {
			return nil, object.NewError(object.DivisionByZero, "")
		}
		return &object.Float{Value: math.Mod(l, r)}, nil
	case "<":
		return object.NativeBoolToBooleanObject(l < r), nil
	case ">":
		return object.NativeBoolToBooleanObject(l > r), nil
	case "<=":
		return object.NativeBoolToBooleanObject(l <= r), nil
	case ">=":
		return object.NativeBoolToBooleanObject(l >= r), nil
	}
	return nil, object.NewTypeMismatch("int operands for "+op, "float")
}

func evalStringInfix(op string, l, r string) (object.Object, error) {
	if op == "+" {
		return &object.String{Value: l + r}, nil
	}
	if cmp, ok := compare(op, strings.Compare(l, r)); ok {
		return cmp, nil
	}
	return nil, object.NewTypeMismatch("operands supporting "+op, "string and string")
}
