package evaluator

import (
	"fmt"
	"loquora/internal/object"
	"strings"
)

type builtinFn func(in *Interpreter, args []object.Object) (object.Object, error)

var builtins = map[string]builtinFn{
	"print": funcPrint(),
	"panic": funcPanic(),

	// list functions
	"list": funcList(),
	"cons": funcCons(),
	"pair": funcPair(),
	"get":  funcGet(),

	// object functions
	"object": funcObject(),
	"lookup": funcLookup(),

	// conversions
	"int":   funcInt(),
	"float": funcFloat(),
	"bool":  funcBool(),
	"str":   funcStr(),
}

func wantArgs(name string, args []object.Object, n int) error {
	if len(args) != n {
		return object.NewInvalidArguments("wrong number of arguments to `%s`. got=%d, want=%d", name, len(args), n)
	}
	return nil
}

// funcPrint writes the text form of each argument separated by spaces.
func funcPrint() builtinFn {
	return func(in *Interpreter, args []object.Object) (object.Object, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = object.ToText(arg)
		}
		if _, err := fmt.Fprintln(in.out, strings.Join(parts, " ")); err != nil {
			return nil, object.WrapError(err)
		}
		return object.NULL, nil
	}
}

func funcPanic() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if len(args) > 1 {
			return nil, object.NewInvalidArguments("wrong number of arguments to `panic`. got=%d, want=0..1", len(args))
		}
		if len(args) == 0 {
			return nil, object.NewCustomError("panic")
		}
		return nil, object.NewCustomError("%s", object.ToText(args[0]))
	}
}

func funcList() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		elements := make([]object.Object, len(args))
		copy(elements, args)
		return &object.List{Elements: elements}, nil
	}
}

// funcCons prepends head to a list tail; any other tail forms a pair.
func funcCons() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("cons", args, 2); err != nil {
			return nil, err
		}
		tail, ok := args[1].(*object.List)
		if !ok {
			return &object.List{Elements: []object.Object{args[0], args[1]}}, nil
		}
		elements := make([]object.Object, 0, len(tail.Elements)+1)
		elements = append(elements, args[0])
		elements = append(elements, tail.Elements...)
		return &object.List{Elements: elements}, nil
	}
}

func funcPair() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("pair", args, 2); err != nil {
			return nil, err
		}
		return &object.List{Elements: []object.Object{args[0], args[1]}}, nil
	}
}

// funcGet returns the element at an index, or null when out of range.
func funcGet() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("get", args, 2); err != nil {
			return nil, err
		}
		list, ok := args[0].(*object.List)
		if !ok {
			return nil, object.NewTypeMismatch("list", string(args[0].Type()))
		}
		idx, ok := args[1].(*object.Integer)
		if !ok {
			return nil, object.NewTypeMismatch("int", string(args[1].Type()))
		}
		if idx.Value < 0 || idx.Value >= int64(len(list.Elements)) {
			return object.NULL, nil
		}
		return list.Elements[idx.Value], nil
	}
}

// funcObject builds an anonymous object from [key, value] pairs.
func funcObject() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		fields := make(map[string]object.Object, len(args))
		for i, arg := range args {
			p, ok := arg.(*object.List)
			if !ok || len(p.Elements) != 2 {
				return nil, object.NewInvalidArguments("argument %d to `object` must be a pair", i+1)
			}
			var key string
			switch k := p.Elements[0].(type) {
			case *object.String:
				key = k.Value
			case *object.Char:
				key = string(k.Value)
			default:
				return nil, object.NewInvalidArguments("key of pair %d must be a string, got %s", i+1, k.Type())
			}
			fields[key] = p.Elements[1]
		}
		return &object.Instance{TypeName: "object", Fields: fields}, nil
	}
}

// funcLookup returns the named field of an object, or null.
func funcLookup() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("lookup", args, 2); err != nil {
			return nil, err
		}
		key, ok := args[1].(*object.String)
		if !ok {
			return nil, object.NewTypeMismatch("string", string(args[1].Type()))
		}
		switch target := args[0].(type) {
		case *object.Instance:
			if val, ok := target.Fields[key.Value]; ok {
				return val, nil
			}
			return object.NULL, nil
		case *object.Module:
			if val, ok := target.Member(key.Value); ok {
				return val, nil
			}
			return object.NULL, nil
		}
		return nil, &object.RuntimeError{Kind: object.NotAnObject, Name: key.Value, Message: "value is " + string(args[0].Type())}
	}
}

func funcInt() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("int", args, 1); err != nil {
			return nil, err
		}
		n, err := object.ToInt(args[0])
		if err != nil {
			return nil, err
		}
		return &object.Integer{Value: n}, nil
	}
}

func funcFloat() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("float", args, 1); err != nil {
			return nil, err
		}
		f, err := object.ToFloat(args[0])
		if err != nil {
			return nil, err
		}
		return &object.Float{Value: f}, nil
	}
}

func funcBool() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("bool", args, 1); err != nil {
			return nil, err
		}
		return object.NativeBoolToBooleanObject(object.IsTruthy(args[0])), nil
	}
}

func funcStr() builtinFn {
	return func(_ *Interpreter, args []object.Object) (object.Object, error) {
		if err := wantArgs("str", args, 1); err != nil {
			return nil, err
		}
		return &object.String{Value: object.ToText(args[0])}, nil
	}
}
