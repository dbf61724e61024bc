package object

import (
	"bytes"
	"loquora/internal/ast"
	"math"
	"sort"
	"strconv"
	"strings"
)

type ObjectType string

const (
	NULL_OBJ     = "null"
	INTEGER_OBJ  = "int"
	FLOAT_OBJ    = "float"
	STRING_OBJ   = "string"
	CHAR_OBJ     = "char"
	BOOLEAN_OBJ  = "bool"
	LIST_OBJ     = "list"
	INSTANCE_OBJ = "object"
	TOOL_OBJ     = "tool"
	TYPE_OBJ     = "type"
	MODULE_OBJ   = "module"
)

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }

// Inspect always shows a fractional part for finite integral values so that
// 3.0 and 3 render differently.
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if math.IsInf(f.Value, 0) || math.IsNaN(f.Value) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return `"` + s.Value + `"` }

type Char struct {
	Value rune
}

func (c *Char) Type() ObjectType { return CHAR_OBJ }
func (c *Char) Inspect() string  { return "'" + string(c.Value) + "'" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	var out bytes.Buffer
	out.WriteString("[")
	for i, e := range l.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(e.Inspect())
	}
	out.WriteString("]")
	return out.String()
}

// Instance is a record value. Fields are fixed at construction; path
// assignment replaces the whole Instance rather than mutating it.
type Instance struct {
	TypeName string
	Fields   map[string]Object
	Def      *TypeDef // nil for anonymous objects built by object(...)

	base *TypeDef
}

func (o *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (o *Instance) Inspect() string {
	var out bytes.Buffer
	out.WriteString(o.TypeName)
	out.WriteString(" {")
	for i, k := range o.Keys() {
		if i > 0 {
			out.WriteString(",")
		}
		out.WriteString(" " + k + ": " + o.Fields[k].Inspect())
	}
	out.WriteString(" }")
	return out.String()
}

// Keys returns the field names in sorted order.
func (o *Instance) Keys() []string {
	keys := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of o with field name set to value.
func (o *Instance) With(name string, value Object) *Instance {
	fields := make(map[string]Object, len(o.Fields)+1)
	for k, v := range o.Fields {
		fields[k] = v
	}
	fields[name] = value
	return &Instance{TypeName: o.TypeName, Fields: fields, Def: o.Def, base: o.base}
}

// Declares reports whether name is a field o may hold.
func (o *Instance) Declares(name string) bool {
	if _, ok := o.Fields[name]; ok {
		return true
	}
	if o.Def == nil {
		return true
	}
	if o.base != nil && o.base.HasMember(name) {
		return true
	}
	return o.Def.HasMember(name)
}

// ToolRef is a callable. Builtins carry no declaration and dispatch by name.
type ToolRef struct {
	Name    string
	Params  []*ast.Param
	Body    *ast.BlockStatement
	Builtin bool
}

func (t *ToolRef) Type() ObjectType { return TOOL_OBJ }
func (t *ToolRef) Inspect() string  { return "tool<" + t.Name + ">" }

func NewTool(decl *ast.ToolDeclaration) *ToolRef {
	return &ToolRef{Name: decl.Name, Params: decl.Params, Body: decl.Body}
}

type TypeRef struct {
	Def *TypeDef
}

func (t *TypeRef) Type() ObjectType { return TYPE_OBJ }
func (t *TypeRef) Inspect() string {
	if t.Def.Kind == TemplateKind {
		return "template<" + t.Def.Name + ">"
	}
	return "type<" + t.Def.Name + ">"
}

// Module is the export set of a loaded file, bound under an alias.
type Module struct {
	Path  string
	Tools map[string]*ToolRef
	Types map[string]*TypeDef
}

func (m *Module) Type() ObjectType { return MODULE_OBJ }
func (m *Module) Inspect() string {
	structs, templates := 0, 0
	for _, def := range m.Types {
		if def.Kind == TemplateKind {
			templates++
		} else {
			structs++
		}
	}
	return "module<" + strconv.Itoa(len(m.Tools)) + " tools, " +
		strconv.Itoa(structs) + " structs, " + strconv.Itoa(templates) + " templates>"
}

// Member resolves alias.name against the export set.
func (m *Module) Member(name string) (Object, bool) {
	if tool, ok := m.Tools[name]; ok {
		return tool, true
	}
	if def, ok := m.Types[name]; ok {
		return &TypeRef{Def: def}, true
	}
	return nil, false
}

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// IsTruthy: false, null, 0, 0.0, "" and [] are falsy; everything else is truthy.
func IsTruthy(obj Object) bool {
	switch o := obj.(type) {
	case *Boolean:
		return o.Value
	case *Null:
		return false
	case *Integer:
		return o.Value != 0
	case *Float:
		return o.Value != 0
	case *String:
		return o.Value != ""
	case *List:
		return len(o.Elements) > 0
	default:
		return true
	}
}

// ToText is the unquoted text form used by str() and print.
func ToText(obj Object) string {
	switch o := obj.(type) {
	case *String:
		return o.Value
	case *Char:
		return string(o.Value)
	default:
		return obj.Inspect()
	}
}

func ToInt(obj Object) (int64, error) {
	switch o := obj.(type) {
	case *Integer:
		return o.Value, nil
	case *Float:
		return int64(o.Value), nil
	case *Boolean:
		if o.Value {
			return 1, nil
		}
		return 0, nil
	case *Char:
		return int64(o.Value), nil
	case *String:
		n, err := strconv.ParseInt(strings.TrimSpace(o.Value), 10, 64)
		if err != nil {
			return 0, NewTypeMismatch("int", "string "+o.Inspect())
		}
		return n, nil
	}
	return 0, NewTypeMismatch("int", string(obj.Type()))
}

func ToFloat(obj Object) (float64, error) {
	switch o := obj.(type) {
	case *Integer:
		return float64(o.Value), nil
	case *Float:
		return o.Value, nil
	case *Boolean:
		if o.Value {
			return 1, nil
		}
		return 0, nil
	case *Char:
		return float64(o.Value), nil
	case *String:
		f, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, NewTypeMismatch("float", "string "+o.Inspect())
		}
		return f, nil
	}
	return 0, NewTypeMismatch("float", string(obj.Type()))
}

// Equal is structural equality. Int and Float compare by numeric value;
// values of unrelated kinds are never equal.
func Equal(a, b Object) bool {
	switch x := a.(type) {
	case *Integer:
		switch y := b.(type) {
		case *Integer:
			return x.Value == y.Value
		case *Float:
			return float64(x.Value) == y.Value
		}
	case *Float:
		switch y := b.(type) {
		case *Integer:
			return x.Value == float64(y.Value)
		case *Float:
			return x.Value == y.Value
		}
	case *String:
		if y, ok := b.(*String); ok {
			return x.Value == y.Value
		}
	case *Char:
		if y, ok := b.(*Char); ok {
			return x.Value == y.Value
		}
	case *Boolean:
		if y, ok := b.(*Boolean); ok {
			return x.Value == y.Value
		}
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case *Instance:
		y, ok := b.(*Instance)
		if !ok || x.TypeName != y.TypeName || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, v := range x.Fields {
			w, ok := y.Fields[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case *ToolRef:
		// instances get their own ToolRef per member, sharing the declaration
		y, ok := b.(*ToolRef)
		return ok && x.Name == y.Name && x.Builtin == y.Builtin && x.Body == y.Body
	case *TypeRef:
		y, ok := b.(*TypeRef)
		return ok && x.Def == y.Def
	case *Module:
		y, ok := b.(*Module)
		return ok && x == y
	}
	return false
}
