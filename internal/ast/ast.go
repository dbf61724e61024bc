package ast

import (
	"bytes"
	"loquora/internal/token"
	"strconv"
	"strings"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
	Span() token.Span
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
	Pos        token.Span
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	} else {
		return ""
	}
}
func (p *Program) Span() token.Span { return p.Pos }
func (p *Program) String() string {
	var out bytes.Buffer

	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}

	return out.String()
}

// Types

// TypeExpr is a type annotation such as Int or List<String>. Annotations are
// kept for documentation and never checked.
type TypeExpr struct {
	Token  token.Token
	Name   string
	Params []*TypeExpr
	Pos    token.Span
}

func (te *TypeExpr) String() string {
	if len(te.Params) == 0 {
		return te.Name
	}
	params := make([]string, 0, len(te.Params))
	for _, p := range te.Params {
		params = append(params, p.String())
	}
	return te.Name + "<" + strings.Join(params, ", ") + ">"
}

type Param struct {
	Token token.Token
	Name  string
	Type  *TypeExpr // nil when unannotated
}

func (p *Param) String() string {
	if p.Type == nil {
		return p.Name
	}
	return p.Name + ": " + p.Type.String()
}

// FieldDecl is a record field. Suffix is one of "", "?", "!" or "?!".
type FieldDecl struct {
	Token  token.Token
	Name   string
	Type   *TypeExpr
	Suffix string
}

// Optional reports whether the field may be omitted at construction.
func (f *FieldDecl) Optional() bool { return strings.Contains(f.Suffix, "?") }

// Nullable reports whether the field accepts null.
func (f *FieldDecl) Nullable() bool { return strings.Contains(f.Suffix, "?") }

func (f *FieldDecl) String() string {
	return f.Name + ": " + f.Type.String() + f.Suffix
}

// Statements

type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
	Pos        token.Span
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Span() token.Span     { return bs.Pos }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// LoadStatement covers import, load and load-and-run.
type LoadStatement struct {
	Token token.Token
	Path  []string
	Alias string
	Run   bool
	Pos   token.Span
}

func (ls *LoadStatement) statementNode()       {}
func (ls *LoadStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LoadStatement) Span() token.Span     { return ls.Pos }
func (ls *LoadStatement) String() string {
	var out bytes.Buffer
	out.WriteString(ls.TokenLiteral() + " ")
	out.WriteString(strings.Join(ls.Path, "/"))
	if ls.Alias != "" {
		out.WriteString(" as " + ls.Alias)
	}
	out.WriteString(";")
	return out.String()
}

type ExportStatement struct {
	Token token.Token
	Decl  Statement // *ToolDeclaration, *StructDeclaration or *TemplateDeclaration
	Pos   token.Span
}

func (es *ExportStatement) statementNode()       {}
func (es *ExportStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExportStatement) Span() token.Span     { return es.Pos }
func (es *ExportStatement) String() string       { return "export " + es.Decl.String() }

type SchemaDeclaration struct {
	Token  token.Token
	Name   string
	Fields []*FieldDecl
	Pos    token.Span
}

func (sd *SchemaDeclaration) statementNode()       {}
func (sd *SchemaDeclaration) TokenLiteral() string { return sd.Token.Literal }
func (sd *SchemaDeclaration) Span() token.Span     { return sd.Pos }
func (sd *SchemaDeclaration) String() string {
	return "schema " + sd.Name + " " + fieldsString(sd.Fields, nil)
}

type StructDeclaration struct {
	Token  token.Token
	Name   string
	Fields []*FieldDecl
	Tools  []*ToolDeclaration
	Pos    token.Span
}

func (sd *StructDeclaration) statementNode()       {}
func (sd *StructDeclaration) TokenLiteral() string { return sd.Token.Literal }
func (sd *StructDeclaration) Span() token.Span     { return sd.Pos }
func (sd *StructDeclaration) String() string {
	return "struct " + sd.Name + " " + fieldsString(sd.Fields, sd.Tools)
}

func fieldsString(fields []*FieldDecl, tools []*ToolDeclaration) string {
	parts := make([]string, 0, len(fields)+len(tools))
	for _, f := range fields {
		parts = append(parts, f.String())
	}
	for _, t := range tools {
		parts = append(parts, t.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// ModelDeclaration is a record type built from tools and defaulted fields,
// optionally extending a single base type.
type ModelDeclaration struct {
	Token    token.Token
	Name     string
	Base     string
	Tools    []*ToolDeclaration
	Defaults []*AssignStatement
	Pos      token.Span
}

func (md *ModelDeclaration) statementNode()       {}
func (md *ModelDeclaration) TokenLiteral() string { return md.Token.Literal }
func (md *ModelDeclaration) Span() token.Span     { return md.Pos }
func (md *ModelDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("model " + md.Name)
	if md.Base != "" {
		out.WriteString(" : " + md.Base)
	}
	out.WriteString(" { ")
	for _, t := range md.Tools {
		out.WriteString(t.String() + " ")
	}
	for _, d := range md.Defaults {
		out.WriteString(d.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

// TemplateDeclaration holds an opaque text body with {{param}} placeholders.
type TemplateDeclaration struct {
	Token  token.Token
	Name   string
	Params []*Param
	Body   string
	Pos    token.Span
}

func (td *TemplateDeclaration) statementNode()       {}
func (td *TemplateDeclaration) TokenLiteral() string { return td.Token.Literal }
func (td *TemplateDeclaration) Span() token.Span     { return td.Pos }
func (td *TemplateDeclaration) String() string {
	return "template " + td.Name + "(" + paramsString(td.Params) + ") { " + strconv.Quote(td.Body) + " }"
}

type ToolDeclaration struct {
	Token      token.Token
	Name       string
	Params     []*Param
	ReturnType *TypeExpr
	Body       *BlockStatement
	Pos        token.Span
}

func (td *ToolDeclaration) statementNode()       {}
func (td *ToolDeclaration) TokenLiteral() string { return td.Token.Literal }
func (td *ToolDeclaration) Span() token.Span     { return td.Pos }
func (td *ToolDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("tool " + td.Name + "(" + paramsString(td.Params) + ")")
	if td.ReturnType != nil {
		out.WriteString(" -> " + td.ReturnType.String())
	}
	out.WriteString(" " + td.Body.String())
	return out.String()
}

func paramsString(params []*Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ")
}

// AssignStatement binds Value to a dotted path such as a or a.b.c.
type AssignStatement struct {
	Token  token.Token
	Target []string
	Value  Expression
	Pos    token.Span
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) Span() token.Span     { return as.Pos }
func (as *AssignStatement) String() string {
	return strings.Join(as.Target, ".") + " = " + as.Value.String() + ";"
}

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
	Pos        token.Span
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Span() token.Span     { return es.Pos }
func (es *ExpressionStatement) String() string       { return es.Expression.String() + ";" }

type WithStatement struct {
	Token token.Token
	Value Expression
	Alias string
	Body  *BlockStatement
	Pos   token.Span
}

func (ws *WithStatement) statementNode()       {}
func (ws *WithStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WithStatement) Span() token.Span     { return ws.Pos }
func (ws *WithStatement) String() string {
	alias := ""
	if ws.Alias != "" {
		alias = " as " + ws.Alias
	}
	return "with " + ws.Value.String() + alias + " " + ws.Body.String()
}

type LoopStatement struct {
	Token token.Token
	Body  *BlockStatement
	Pos   token.Span
}

func (ls *LoopStatement) statementNode()       {}
func (ls *LoopStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LoopStatement) Span() token.Span     { return ls.Pos }
func (ls *LoopStatement) String() string       { return "loop " + ls.Body.String() }

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
	Pos       token.Span
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Span() token.Span     { return ws.Pos }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

type ForStatement struct {
	Token    token.Token
	Variable string
	Iterable Expression
	Body     *BlockStatement
	Pos      token.Span
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Span() token.Span     { return fs.Pos }
func (fs *ForStatement) String() string {
	return "for " + fs.Variable + " in " + fs.Iterable.String() + " " + fs.Body.String()
}

// ConditionalArm is one if or elif branch.
type ConditionalArm struct {
	Condition Expression
	Body      *BlockStatement
}

type IfStatement struct {
	Token token.Token
	Arms  []*ConditionalArm
	Else  *BlockStatement // nil when absent
	Pos   token.Span
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Span() token.Span     { return is.Pos }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	for i, arm := range is.Arms {
		if i == 0 {
			out.WriteString("if ")
		} else {
			out.WriteString(" elif ")
		}
		out.WriteString(arm.Condition.String() + " " + arm.Body.String())
	}
	if is.Else != nil {
		out.WriteString(" else " + is.Else.String())
	}
	return out.String()
}

type ReturnStatement struct {
	Token       token.Token
	ReturnValue Expression // nil for a bare return
	Pos         token.Span
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Span() token.Span     { return rs.Pos }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return;"
	}
	return "return " + rs.ReturnValue.String() + ";"
}

type BreakStatement struct {
	Token token.Token
	Pos   token.Span
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Span() token.Span     { return bs.Pos }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token
	Pos   token.Span
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Span() token.Span     { return cs.Pos }
func (cs *ContinueStatement) String() string       { return "continue;" }

// Expressions

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
	Pos   token.Span
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Span() token.Span     { return i.Pos }
func (i *Identifier) String() string       { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
	Pos   token.Span
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Span() token.Span     { return il.Pos }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
	Pos   token.Span
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) Span() token.Span     { return fl.Pos }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

// StringLiteral holds the decoded text of a string or heredoc literal.
type StringLiteral struct {
	Token token.Token
	Value string
	Pos   token.Span
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Span() token.Span     { return sl.Pos }
func (sl *StringLiteral) String() string       { return strconv.Quote(sl.Value) }

type CharLiteral struct {
	Token token.Token
	Value rune
	Pos   token.Span
}

func (cl *CharLiteral) expressionNode()      {}
func (cl *CharLiteral) TokenLiteral() string { return cl.Token.Literal }
func (cl *CharLiteral) Span() token.Span     { return cl.Pos }
func (cl *CharLiteral) String() string       { return strconv.QuoteRune(cl.Value) }

type Boolean struct {
	Token token.Token
	Value bool
	Pos   token.Span
}

func (b *Boolean) expressionNode()      {}
func (b *Boolean) TokenLiteral() string { return b.Token.Literal }
func (b *Boolean) Span() token.Span     { return b.Pos }
func (b *Boolean) String() string       { return b.Token.Literal }

type Null struct {
	Token token.Token
	Pos   token.Span
}

func (n *Null) expressionNode()      {}
func (n *Null) TokenLiteral() string { return n.Token.Literal }
func (n *Null) Span() token.Span     { return n.Pos }
func (n *Null) String() string       { return "null" }

type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator string
	Right    Expression
	Pos      token.Span
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Span() token.Span     { return pe.Pos }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
	Pos      token.Span
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Span() token.Span     { return ie.Pos }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

type TernaryExpression struct {
	Token       token.Token // the ? token
	Condition   Expression
	Consequence Expression
	Alternative Expression
	Pos         token.Span
}

func (te *TernaryExpression) expressionNode()      {}
func (te *TernaryExpression) TokenLiteral() string { return te.Token.Literal }
func (te *TernaryExpression) Span() token.Span     { return te.Pos }
func (te *TernaryExpression) String() string {
	return "(" + te.Condition.String() + " ? " + te.Consequence.String() + " : " + te.Alternative.String() + ")"
}

// QuaternaryExpression is cond ?? onTrue :: onFalse !! onNull.
type QuaternaryExpression struct {
	Token     token.Token // the ?? token
	Condition Expression
	OnTrue    Expression
	OnFalse   Expression
	OnNull    Expression
	Pos       token.Span
}

func (qe *QuaternaryExpression) expressionNode()      {}
func (qe *QuaternaryExpression) TokenLiteral() string { return qe.Token.Literal }
func (qe *QuaternaryExpression) Span() token.Span     { return qe.Pos }
func (qe *QuaternaryExpression) String() string {
	return "(" + qe.Condition.String() + " ?? " + qe.OnTrue.String() + " :: " +
		qe.OnFalse.String() + " !! " + qe.OnNull.String() + ")"
}

type CallExpression struct {
	Token     token.Token // The '(' token
	Function  Expression
	Arguments []Expression
	Pos       token.Span
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Span() token.Span     { return ce.Pos }
func (ce *CallExpression) String() string {
	args := make([]string, 0, len(ce.Arguments))
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

type PropertyExpression struct {
	Token    token.Token // the . token
	Object   Expression
	Property string
	Pos      token.Span
}

func (pe *PropertyExpression) expressionNode()      {}
func (pe *PropertyExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PropertyExpression) Span() token.Span     { return pe.Pos }
func (pe *PropertyExpression) String() string {
	return pe.Object.String() + "." + pe.Property
}

type FieldInit struct {
	Name  string
	Value Expression
}

// ObjectInitExpression is Type { name: value, ... }; Type may be qualified
// (alias.Type).
type ObjectInitExpression struct {
	Token    token.Token // the { token
	TypeExpr Expression
	Fields   []*FieldInit
	Pos      token.Span
}

func (oi *ObjectInitExpression) expressionNode()      {}
func (oi *ObjectInitExpression) TokenLiteral() string { return oi.Token.Literal }
func (oi *ObjectInitExpression) Span() token.Span     { return oi.Pos }
func (oi *ObjectInitExpression) String() string {
	fields := make([]string, 0, len(oi.Fields))
	for _, f := range oi.Fields {
		fields = append(fields, f.Name+": "+f.Value.String())
	}
	return oi.TypeExpr.String() + " { " + strings.Join(fields, ", ") + " }"
}
