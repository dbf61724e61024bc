package evaluator

import (
	"errors"
	"loquora/internal/ast"
	"loquora/internal/object"
	"regexp"
	"strings"
)

func (in *Interpreter) evalCall(node *ast.CallExpression) (object.Object, error) {
	var self *object.Instance
	var callee object.Object

	// a tool member read through an Instance is called with self bound
	if prop, ok := node.Function.(*ast.PropertyExpression); ok {
		target, err := in.eval(prop.Object)
		if err != nil {
			return nil, err
		}
		callee, err = property(target, prop.Property)
		if err != nil {
			return nil, located(err, prop)
		}
		self, _ = target.(*object.Instance)
	} else {
		var err error
		callee, err = in.eval(node.Function)
		if err != nil {
			return nil, err
		}
	}

	if err := checkArity(node, callee); err != nil {
		return nil, located(err, node)
	}

	args := make([]object.Object, 0, len(node.Arguments))
	for _, arg := range node.Arguments {
		val, err := in.eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	switch fn := callee.(type) {
	case *object.ToolRef:
		return in.callTool(fn, args, self, node)
	case *object.TypeRef:
		val, err := renderTemplate(fn.Def, args)
		if err != nil {
			return nil, located(err, node)
		}
		return val, nil
	}
	return nil, located(notCallable(node, callee), node)
}

// checkArity rejects a call before its arguments are evaluated. Builtins
// check their own argument counts.
func checkArity(node *ast.CallExpression, callee object.Object) error {
	n := len(node.Arguments)
	switch fn := callee.(type) {
	case *object.ToolRef:
		if !fn.Builtin && n != len(fn.Params) {
			return object.NewInvalidArguments("tool %s expects %d arguments, got %d", fn.Name, len(fn.Params), n)
		}
		return nil
	case *object.TypeRef:
		if fn.Def.Kind == object.TemplateKind {
			if n != len(fn.Def.Params) {
				return object.NewInvalidArguments("template %s expects %d arguments, got %d", fn.Def.Name, len(fn.Def.Params), n)
			}
			return nil
		}
	}
	return notCallable(node, callee)
}

func notCallable(node *ast.CallExpression, callee object.Object) *object.RuntimeError {
	return &object.RuntimeError{
		Kind:    object.NotCallable,
		Name:    node.Function.String(),
		Message: "value is " + callee.Inspect(),
	}
}

// callTool applies a tool. User tools run in a new frame under tool
// context; the first return signal supplies the result.
func (in *Interpreter) callTool(tool *object.ToolRef, args []object.Object, self *object.Instance, call *ast.CallExpression) (object.Object, error) {
	if tool.Builtin {
		fn, ok := builtins[tool.Name]
		if !ok {
			return nil, located(object.NewError(object.UndefinedTool, tool.Name), call)
		}
		val, err := fn(in, args)
		if err != nil {
			return nil, located(err, call)
		}
		return val, nil
	}

	if len(args) != len(tool.Params) {
		return nil, located(object.NewInvalidArguments("tool %s expects %d arguments, got %d",
			tool.Name, len(tool.Params), len(args)), call)
	}

	in.env.PushScope()
	defer in.env.PopScope()
	prev := in.env.EnterTool()
	defer in.env.ExitTool(prev)

	if self != nil {
		in.env.Set("self", self)
	}
	for i, param := range tool.Params {
		in.env.Set(param.Name, args[i])
	}

	sig, val, err := in.execBlock(tool.Body)
	if err != nil {
		re := object.WrapError(err).At(call.Span())
		re.StackTrace = append(re.StackTrace, object.StackFrame{Tool: tool.Name, Pos: call.Span()})
		return nil, re
	}
	if sig == signalReturn {
		return val, nil
	}
	return object.NULL, nil
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// renderTemplate substitutes {{param}} in the template body with the text
// form of the matching argument. Unknown placeholders are left as written.
func renderTemplate(def *object.TypeDef, args []object.Object) (object.Object, error) {
	if len(args) != len(def.Params) {
		return nil, object.NewInvalidArguments("template %s expects %d arguments, got %d",
			def.Name, len(def.Params), len(args))
	}
	values := make(map[string]string, len(args))
	for i, param := range def.Params {
		values[param.Name] = object.ToText(args[i])
	}

	body := placeholderRe.ReplaceAllStringFunc(def.Body, func(m string) string {
		name := strings.TrimSpace(m[2 : len(m)-2])
		if v, ok := values[name]; ok {
			return v
		}
		return m
	})
	return &object.String{Value: body}, nil
}

// resolveType evaluates the type expression of an object initializer. Any
// expression yielding a TypeRef works, including a variable holding one.
func (in *Interpreter) resolveType(expr ast.Expression) (*object.TypeDef, error) {
	val, err := in.eval(expr)
	if err != nil {
		var re *object.RuntimeError
		if errors.As(err, &re) && re.Pos != nil && *re.Pos == expr.Span() &&
			(re.Kind == object.UndefinedVariable || re.Kind == object.FieldNotFound) {
			return nil, located(object.NewError(object.UndefinedType, expr.String()), expr)
		}
		return nil, err
	}
	ref, ok := val.(*object.TypeRef)
	if !ok {
		return nil, located(object.NewTypeMismatch("type", string(val.Type())), expr)
	}
	return ref.Def, nil
}

// evalObjectInit builds an Instance. Tool members become ToolRef fields and
// model defaults are evaluated before the supplied values are applied.
func (in *Interpreter) evalObjectInit(node *ast.ObjectInitExpression) (object.Object, error) {
	def, err := in.resolveType(node.TypeExpr)
	if err != nil {
		return nil, err
	}
	layout, err := in.env.Layout(def)
	if err != nil {
		return nil, located(err, node)
	}

	members := make(map[string]object.Object, len(layout.Tools)+len(layout.Defaults))
	for _, decl := range layout.Tools {
		members[decl.Name] = object.NewTool(decl)
	}
	for _, assign := range layout.Defaults {
		val, err := in.eval(assign.Value)
		if err != nil {
			return nil, err
		}
		members[assign.Target[0]] = val
	}

	supplied := make(map[string]object.Object, len(node.Fields))
	for _, f := range node.Fields {
		val, err := in.eval(f.Value)
		if err != nil {
			return nil, err
		}
		supplied[f.Name] = val
	}

	inst, err := in.env.NewInstance(def, layout.Fields, members, supplied)
	if err != nil {
		return nil, located(err, node)
	}
	return inst, nil
}
