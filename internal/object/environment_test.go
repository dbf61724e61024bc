package object

import (
	"loquora/internal/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsResolveFirst(t *testing.T) {
	env := NewEnvironment()
	env.Set("print", &Integer{Value: 1})
	env.DefineTool(&ToolRef{Name: "str"})

	val, ok := env.Get("print")
	require.True(t, ok)
	tool, isTool := val.(*ToolRef)
	require.True(t, isTool)
	assert.True(t, tool.Builtin)

	val, _ = env.Get("str")
	assert.True(t, val.(*ToolRef).Builtin)

	val, _ = env.Get("nil")
	assert.Equal(t, "[]", val.Inspect())
}

func TestScopes(t *testing.T) {
	env := NewEnvironment()
	env.Set("x", &Integer{Value: 1})
	env.DefineTool(&ToolRef{Name: "helper"})
	env.DefineType(&TypeDef{Kind: StructKind, Name: "Point"})

	env.PushScope()
	env.Set("x", &Integer{Value: 2})
	val, _ := env.Get("x")
	assert.Equal(t, "2", val.Inspect())
	env.PopScope()

	val, _ = env.Get("x")
	assert.Equal(t, "1", val.Inspect())

	val, _ = env.Get("helper")
	assert.Equal(t, "tool<helper>", val.Inspect())
	val, _ = env.Get("Point")
	assert.Equal(t, "type<Point>", val.Inspect())

	_, ok := env.Get("missing")
	assert.False(t, ok)

	env.PopScope()
	assert.Equal(t, 1, env.Depth())
}

func TestLoopAndToolContext(t *testing.T) {
	env := NewEnvironment()
	assert.False(t, env.InLoop())
	env.EnterLoop()
	env.EnterLoop()
	env.ExitLoop()
	assert.True(t, env.InLoop())
	env.ExitLoop()
	assert.False(t, env.InLoop())

	env.EnterLoop()
	outer := env.EnterTool()
	assert.True(t, env.InTool())
	assert.False(t, env.InLoop(), "caller loops are hidden inside a tool")
	inner := env.EnterTool()
	env.ExitTool(inner)
	assert.True(t, env.InTool())
	env.ExitTool(outer)
	assert.False(t, env.InTool())
	assert.True(t, env.InLoop())
}

func pointDef() (*TypeDef, []*ast.FieldDecl) {
	intType := &ast.TypeExpr{Name: "Int"}
	fields := []*ast.FieldDecl{
		{Name: "x", Type: intType},
		{Name: "y", Type: intType, Suffix: "!"},
		{Name: "label", Type: &ast.TypeExpr{Name: "String"}, Suffix: "?"},
		{Name: "inner", Type: &ast.TypeExpr{Name: "Point"}, Suffix: "?!"},
	}
	return &TypeDef{Kind: StructKind, Name: "Point", Fields: fields}, fields
}

func TestNewInstanceValidation(t *testing.T) {
	env := NewEnvironment()
	def, fields := pointDef()
	one := &Integer{Value: 1}

	inst, err := env.NewInstance(def, fields, nil, map[string]Object{"x": one, "y": one})
	require.NoError(t, err)
	assert.Equal(t, "Point { x: 1, y: 1 }", inst.Inspect())

	_, err = env.NewInstance(def, fields, nil, map[string]Object{"x": one})
	assert.ErrorIs(t, err, ErrRequiredFieldMissing)

	_, err = env.NewInstance(def, fields, nil, map[string]Object{"x": NULL, "y": one})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = env.NewInstance(def, fields, nil, map[string]Object{"x": one, "y": one, "label": NULL, "inner": NULL})
	assert.NoError(t, err)

	_, err = env.NewInstance(def, fields, nil, map[string]Object{"x": one, "y": one, "z": one})
	assert.ErrorIs(t, err, ErrFieldNotFound)

	tpl := &TypeDef{Kind: TemplateKind, Name: "T"}
	_, err = env.NewInstance(tpl, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestLayoutIncludesBase(t *testing.T) {
	env := NewEnvironment()
	base, _ := pointDef()
	env.DefineType(base)

	model := &TypeDef{Kind: ModelKind, Name: "Labeled", Base: "Point"}
	layout, err := env.Layout(model)
	require.NoError(t, err)
	assert.Len(t, layout.Fields, 4)

	one := &Integer{Value: 1}
	inst, err := env.NewInstance(model, layout.Fields, nil, map[string]Object{"x": one, "y": one})
	require.NoError(t, err)
	assert.True(t, inst.Declares("label"), "base fields are declared")
	assert.True(t, inst.With("x", one).Declares("label"))

	model.Base = "Nope"
	_, err = env.Layout(model)
	assert.ErrorIs(t, err, ErrUndefinedType)
}

func TestSetPath(t *testing.T) {
	env := NewEnvironment()
	def, fields := pointDef()
	one, two := &Integer{Value: 1}, &Integer{Value: 2}

	inner, err := env.NewInstance(def, fields, nil, map[string]Object{"x": one, "y": one})
	require.NoError(t, err)
	outer, err := env.NewInstance(def, fields, nil, map[string]Object{"x": one, "y": one, "inner": inner})
	require.NoError(t, err)
	env.Set("p", outer)
	alias := outer

	require.NoError(t, env.SetPath([]string{"p", "inner", "x"}, two))
	updated, _ := env.Get("p")
	assert.Equal(t, "2", updated.(*Instance).Fields["inner"].(*Instance).Fields["x"].Inspect())
	assert.Equal(t, "1", alias.Fields["inner"].(*Instance).Fields["x"].Inspect(), "original must not change")

	// optional field omitted at construction may still be written
	require.NoError(t, env.SetPath([]string{"p", "label"}, &String{Value: "a"}))

	assert.ErrorIs(t, env.SetPath([]string{"p", "z"}, one), ErrFieldNotFound)
	assert.ErrorIs(t, env.SetPath([]string{"p", "x", "y"}, one), ErrFieldNotFound)
	assert.ErrorIs(t, env.SetPath(nil, one), ErrEmptyPath)
	assert.ErrorIs(t, env.SetPath([]string{"q", "x"}, one), ErrUndefinedVariable)

	env.Set("n", &Integer{Value: 5})
	assert.ErrorIs(t, env.SetPath([]string{"n", "y"}, one), ErrNotAnObject)
}
