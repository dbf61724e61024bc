package object

import (
	"log/slog"
	"loquora/internal/ast"
	"strconv"
	"strings"
)

// BuiltinNames resolve before any user binding and cannot be shadowed.
var BuiltinNames = []string{
	"print", "panic", "list", "cons", "nil", "object", "pair",
	"get", "lookup", "int", "float", "bool", "str",
}

var builtinTools = func() map[string]*ToolRef {
	tools := make(map[string]*ToolRef, len(BuiltinNames))
	for _, name := range BuiltinNames {
		if name == "nil" {
			continue
		}
		tools[name] = &ToolRef{Name: name, Builtin: true}
	}
	return tools
}()

// Environment is the state of one program run: the scope frame stack, the
// global tool and type registries and the loop/tool context.
type Environment struct {
	frames []map[string]Object // innermost last
	tools  map[string]*ToolRef
	types  map[string]*TypeDef

	inLoop int
	inTool bool
}

func NewEnvironment() *Environment {
	return &Environment{
		frames: []map[string]Object{make(map[string]Object)},
		tools:  make(map[string]*ToolRef),
		types:  make(map[string]*TypeDef),
	}
}

// Get resolves name: builtins, then frames innermost to outermost, then
// global tools, then declared types.
func (e *Environment) Get(name string) (Object, bool) {
	if name == "nil" {
		return &List{}, true
	}
	if tool, ok := builtinTools[name]; ok {
		return tool, true
	}
	for i := len(e.frames) - 1; i >= 0; i-- {
		if val, ok := e.frames[i][name]; ok {
			return val, true
		}
	}
	if tool, ok := e.tools[name]; ok {
		return tool, true
	}
	if def, ok := e.types[name]; ok {
		return &TypeRef{Def: def}, true
	}
	return nil, false
}

// Set binds name in the innermost frame.
func (e *Environment) Set(name string, val Object) {
	e.frames[len(e.frames)-1][name] = val
}

// SetPath assigns through a dotted path. The Instances along the path are
// copied, never mutated, and the root binding is replaced.
func (e *Environment) SetPath(path []string, val Object) error {
	if len(path) == 0 {
		return NewError(EmptyPath, "")
	}
	if len(path) == 1 {
		e.Set(path[0], val)
		return nil
	}

	root, ok := e.Get(path[0])
	if !ok {
		return NewError(UndefinedVariable, path[0])
	}
	inst, ok := root.(*Instance)
	if !ok {
		return &RuntimeError{Kind: NotAnObject, Name: path[0], Message: "value is " + string(root.Type())}
	}

	updated, err := setField(inst, path[0], path[1:], val)
	if err != nil {
		return err
	}
	e.Set(path[0], updated)
	return nil
}

func setField(inst *Instance, prefix string, path []string, val Object) (*Instance, error) {
	name := path[0]
	if len(path) == 1 {
		if !inst.Declares(name) {
			return nil, NewError(FieldNotFound, prefix+"."+name)
		}
		return inst.With(name, val), nil
	}

	child, ok := inst.Fields[name]
	if !ok {
		return nil, NewError(FieldNotFound, prefix+"."+name)
	}
	childInst, ok := child.(*Instance)
	if !ok {
		return nil, &RuntimeError{Kind: FieldNotFound, Name: prefix + "." + name, Message: "not an object"}
	}
	updated, err := setField(childInst, prefix+"."+name, path[1:], val)
	if err != nil {
		return nil, err
	}
	return inst.With(name, updated), nil
}

func (e *Environment) PushScope() {
	e.frames = append(e.frames, make(map[string]Object))
}

// PopScope drops the innermost frame. The global frame is never popped.
func (e *Environment) PopScope() {
	if len(e.frames) > 1 {
		e.frames = e.frames[:len(e.frames)-1]
	}
}

func (e *Environment) Depth() int { return len(e.frames) }

func (e *Environment) DefineTool(tool *ToolRef) {
	slog.Debug("define tool", slog.String("name", tool.Name))
	e.tools[tool.Name] = tool
}

func (e *Environment) DefineType(def *TypeDef) {
	slog.Debug("define type", slog.String("name", def.Name), slog.String("kind", def.Kind.String()))
	e.types[def.Name] = def
}


func (e *Environment) EnterLoop() { e.inLoop++ }

func (e *Environment) ExitLoop() {
	if e.inLoop > 0 {
		e.inLoop--
	}
}

func (e *Environment) InLoop() bool { return e.inLoop > 0 }

// CallState is the loop/tool context saved around a tool call.
type CallState struct {
	inLoop int
	inTool bool
}

// EnterTool marks tool context and clears the loop counter so break and
// continue cannot reach loops of the caller. The previous state is returned
// for ExitTool.
func (e *Environment) EnterTool() CallState {
	prev := CallState{inLoop: e.inLoop, inTool: e.inTool}
	e.inTool = true
	e.inLoop = 0
	return prev
}

func (e *Environment) ExitTool(prev CallState) {
	e.inLoop = prev.inLoop
	e.inTool = prev.inTool
}

func (e *Environment) InTool() bool { return e.inTool }

// Layout flattens def with its base type (one level) ahead of its own
// members. A missing base is an undefined-type failure.
func (e *Environment) Layout(def *TypeDef) (Layout, error) {
	var layout Layout
	if def.Base != "" {
		base, ok := e.types[def.Base]
		if !ok {
			return layout, NewError(UndefinedType, def.Base)
		}
		if base.Kind == TemplateKind {
			return layout, NewTypeMismatch("record type", "template "+base.Name)
		}
		layout.Fields = append(layout.Fields, base.Fields...)
		layout.Tools = append(layout.Tools, base.Tools...)
		layout.Defaults = append(layout.Defaults, base.Defaults...)
	}
	layout.Fields = append(layout.Fields, def.Fields...)
	layout.Tools = append(layout.Tools, def.Tools...)
	layout.Defaults = append(layout.Defaults, def.Defaults...)
	return layout, nil
}

// NewInstance validates supplied field values against the declared fields
// and builds the Instance. members holds values for tool and default members
// which supplied values may override.
func (e *Environment) NewInstance(
	def *TypeDef,
	fields []*ast.FieldDecl,
	members map[string]Object,
	supplied map[string]Object,
) (*Instance, error) {
	if def.Kind == TemplateKind {
		return nil, NewInvalidArguments("cannot instantiate template %s", def.Name)
	}

	declared := make(map[string]*ast.FieldDecl, len(fields))
	for _, f := range fields {
		declared[f.Name] = f
	}
	for name := range supplied {
		_, isField := declared[name]
		_, isMember := members[name]
		if !isField && !isMember {
			return nil, NewError(FieldNotFound, def.Name+"."+name)
		}
	}

	out := make(map[string]Object, len(fields)+len(members))
	for name, val := range members {
		out[name] = val
	}
	for _, f := range fields {
		val, ok := supplied[f.Name]
		if !ok {
			if !f.Optional() {
				return nil, NewError(RequiredFieldMissing, def.Name+"."+f.Name)
			}
			continue
		}
		if _, isNull := val.(*Null); isNull && !f.Nullable() {
			mismatch := NewTypeMismatch("non-null "+f.Type.String(), "null")
			mismatch.Name = def.Name + "." + f.Name
			return nil, mismatch
		}
	}
	for name, val := range supplied {
		out[name] = val
	}

	inst := &Instance{TypeName: def.Name, Fields: out, Def: def}
	if def.Base != "" {
		inst.base = e.types[def.Base]
	}
	return inst, nil
}

// String lists the bindings of every frame, for debugging.
func (e *Environment) String() string {
	var sb strings.Builder
	for i, frame := range e.frames {
		sb.WriteString("frame " + strconv.Itoa(i) + ":")
		for name, val := range frame {
			sb.WriteString(" " + name + "=" + val.Inspect())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
