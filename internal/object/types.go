package object

import "loquora/internal/ast"

type TypeKind int

const (
	SchemaKind TypeKind = iota
	StructKind
	ModelKind
	TemplateKind
)

func (k TypeKind) String() string {
	switch k {
	case SchemaKind:
		return "schema"
	case StructKind:
		return "struct"
	case ModelKind:
		return "model"
	default:
		return "template"
	}
}

// TypeDef is a declared record type or template as held by the type registry
// and by module export sets.
type TypeDef struct {
	Kind     TypeKind
	Name     string
	Fields   []*ast.FieldDecl
	Tools    []*ast.ToolDeclaration
	Defaults []*ast.AssignStatement // model field-assignment members
	Base     string                 // model base type, "" when absent
	Params   []*ast.Param           // template parameters
	Body     string                 // template text
}

// NewTypeDef converts a type declaration. ok is false for other statements.
func NewTypeDef(stmt ast.Statement) (def *TypeDef, ok bool) {
	switch d := stmt.(type) {
	case *ast.SchemaDeclaration:
		return &TypeDef{Kind: SchemaKind, Name: d.Name, Fields: d.Fields}, true
	case *ast.StructDeclaration:
		return &TypeDef{Kind: StructKind, Name: d.Name, Fields: d.Fields, Tools: d.Tools}, true
	case *ast.ModelDeclaration:
		return &TypeDef{Kind: ModelKind, Name: d.Name, Tools: d.Tools, Defaults: d.Defaults, Base: d.Base}, true
	case *ast.TemplateDeclaration:
		return &TypeDef{Kind: TemplateKind, Name: d.Name, Params: d.Params, Body: d.Body}, true
	}
	return nil, false
}

// HasMember reports whether name is a field, tool or default of this type
// (base members excluded).
func (d *TypeDef) HasMember(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	for _, t := range d.Tools {
		if t.Name == name {
			return true
		}
	}
	for _, a := range d.Defaults {
		if a.Target[0] == name {
			return true
		}
	}
	return false
}

// Layout is the flattened member list of a type: base members first.
type Layout struct {
	Fields   []*ast.FieldDecl
	Tools    []*ast.ToolDeclaration
	Defaults []*ast.AssignStatement
}
