package object

import (
	"errors"
	"loquora/internal/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	point := &Instance{
		TypeName: "Point",
		Fields:   map[string]Object{"y": &Integer{Value: 2}, "x": &Integer{Value: 1}},
	}
	module := &Module{
		Tools: map[string]*ToolRef{"f": {Name: "f"}},
		Types: map[string]*TypeDef{
			"P": {Kind: StructKind, Name: "P"},
			"T": {Kind: TemplateKind, Name: "T"},
			"S": {Kind: SchemaKind, Name: "S"},
		},
	}

	tests := []struct {
		obj      Object
		expected string
	}{
		{&Integer{Value: -7}, "-7"},
		{&Float{Value: 2.5}, "2.5"},
		{&Float{Value: 3}, "3.0"},
		{&Float{Value: 1e21}, "1e+21"},
		{&String{Value: "hi"}, `"hi"`},
		{&Char{Value: 'c'}, "'c'"},
		{TRUE, "true"},
		{NULL, "null"},
		{&List{Elements: []Object{&Integer{Value: 1}, &String{Value: "a"}}}, `[1, "a"]`},
		{&List{}, "[]"},
		{point, "Point { x: 1, y: 2 }"},
		{&ToolRef{Name: "add"}, "tool<add>"},
		{&TypeRef{Def: &TypeDef{Kind: StructKind, Name: "Point"}}, "type<Point>"},
		{&TypeRef{Def: &TypeDef{Kind: TemplateKind, Name: "Greeting"}}, "template<Greeting>"},
		{module, "module<1 tools, 2 structs, 1 templates>"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.obj.Inspect())
	}
}

func TestIsTruthy(t *testing.T) {
	falsy := []Object{FALSE, NULL, &Integer{}, &Float{}, &String{}, &List{}}
	truthy := []Object{
		TRUE, &Integer{Value: -1}, &Float{Value: 0.1}, &String{Value: "0"},
		&List{Elements: []Object{NULL}}, &Char{Value: 0},
		&Instance{TypeName: "E", Fields: map[string]Object{}}, &ToolRef{Name: "f"},
	}
	for _, obj := range falsy {
		assert.False(t, IsTruthy(obj), "%s should be falsy", obj.Inspect())
	}
	for _, obj := range truthy {
		assert.True(t, IsTruthy(obj), "%s should be truthy", obj.Inspect())
	}
}

func TestConversions(t *testing.T) {
	n, err := ToInt(&Float{Value: 3.9})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = ToInt(&String{Value: " 42 "})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = ToInt(&Char{Value: 'A'})
	require.NoError(t, err)
	assert.Equal(t, int64(65), n)

	_, err = ToInt(&String{Value: "forty"})
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	f, err := ToFloat(TRUE)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)

	_, err = ToFloat(NULL)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	for _, text := range []string{"inf", "-Inf", "NaN", "1e400"} {
		_, err = ToFloat(&String{Value: text})
		assert.ErrorIs(t, err, ErrTypeMismatch, text)
	}

	assert.Equal(t, "hi", ToText(&String{Value: "hi"}))
	assert.Equal(t, "x", ToText(&Char{Value: 'x'}))
	assert.Equal(t, "[1]", ToText(&List{Elements: []Object{&Integer{Value: 1}}}))
}

func TestEqual(t *testing.T) {
	one := &Integer{Value: 1}
	get := &ast.ToolDeclaration{Name: "get", Body: &ast.BlockStatement{}}
	other := &ast.ToolDeclaration{Name: "get", Body: &ast.BlockStatement{}}
	tests := []struct {
		a, b     Object
		expected bool
	}{
		{one, &Float{Value: 1.0}, true},
		{&Float{Value: 2.5}, &Integer{Value: 2}, false},
		{&String{Value: "a"}, &String{Value: "a"}, true},
		{&String{Value: "true"}, TRUE, false},
		{NULL, NULL, true},
		{NULL, &Integer{}, false},
		{&Char{Value: 'a'}, &String{Value: "a"}, false},
		{&List{Elements: []Object{one}}, &List{Elements: []Object{&Float{Value: 1}}}, true},
		{
			&Instance{TypeName: "P", Fields: map[string]Object{"x": one}},
			&Instance{TypeName: "P", Fields: map[string]Object{"x": &Integer{Value: 1}}},
			true,
		},
		{
			&Instance{TypeName: "P", Fields: map[string]Object{"x": one}},
			&Instance{TypeName: "Q", Fields: map[string]Object{"x": one}},
			false,
		},
		{NewTool(get), NewTool(get), true},
		{NewTool(get), NewTool(other), false},
		{
			&Instance{TypeName: "P", Fields: map[string]Object{"x": one, "get": NewTool(get)}},
			&Instance{TypeName: "P", Fields: map[string]Object{"x": one, "get": NewTool(get)}},
			true,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Equal(tt.a, tt.b), "%s == %s", tt.a.Inspect(), tt.b.Inspect())
	}
}

func TestRuntimeErrorMatching(t *testing.T) {
	err := error(NewError(FieldNotFound, "Point.z"))
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.NotErrorIs(t, err, ErrNotAnObject)
	assert.Equal(t, "field not found: Point.z", err.Error())

	assert.Equal(t, "type mismatch: expected int, got string",
		NewTypeMismatch("int", "string").Error())
	assert.Equal(t, "boom", NewCustomError("boom").Error())
	assert.Equal(t, "division by zero", NewError(DivisionByZero, "").Error())

	cause := errors.New("disk on fire")
	wrapped := WrapError(cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, ErrCustom)
}
