package evaluator

import (
	"context"
	"io"
	"log/slog"
	"loquora/internal/ast"
	"loquora/internal/modules"
	"loquora/internal/object"
	"loquora/internal/parser"
	"os"
)

// signal is the control-flow outcome of executing a statement.
type signal int

const (
	signalNone signal = iota
	signalReturn
	signalBreak
	signalContinue
)

// Interpreter runs programs against one Environment. Modules are resolved
// through a Loader that may be shared with child interpreters.
type Interpreter struct {
	env    *object.Environment
	loader *modules.Loader
	out    io.Writer
	ctx    context.Context
}

// New creates an interpreter writing print output to out (stdout when nil).
// It installs itself as the loader's runner for load-and-run.
func New(loader *modules.Loader, out io.Writer) *Interpreter {
	if loader == nil {
		loader = modules.NewLoader()
	}
	if out == nil {
		out = os.Stdout
	}
	in := &Interpreter{
		env:    object.NewEnvironment(),
		loader: loader,
		out:    out,
		ctx:    context.Background(),
	}
	loader.SetRunner(in.runModule)
	return in
}

func (in *Interpreter) Env() *object.Environment { return in.env }

func (in *Interpreter) Loader() *modules.Loader { return in.loader }

// RunSource parses and runs src.
func (in *Interpreter) RunSource(src string) (object.Object, error) {
	program, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return in.Run(program)
}

func (in *Interpreter) Run(program *ast.Program) (object.Object, error) {
	return in.RunContext(context.Background(), program)
}

// RunContext executes the top-level statements in order and returns the
// value of the last expression statement, or null when there is none.
func (in *Interpreter) RunContext(ctx context.Context, program *ast.Program) (object.Object, error) {
	in.ctx = ctx
	var result object.Object = object.NULL
	for _, stmt := range program.Statements {
		_, val, err := in.exec(stmt)
		if err != nil {
			return nil, err
		}
		if _, ok := stmt.(*ast.ExpressionStatement); ok {
			result = val
		}
	}
	return result, nil
}

// runModule executes a module's statements in a fresh interpreter that
// shares the loader.
func (in *Interpreter) runModule(ctx context.Context, m *modules.Module) error {
	slog.Debug("running module", slog.String("module", m.Name))
	child := &Interpreter{
		env:    object.NewEnvironment(),
		loader: in.loader,
		out:    in.out,
	}
	_, err := child.RunContext(ctx, m.Program)
	return err
}

func (in *Interpreter) exec(stmt ast.Statement) (signal, object.Object, error) {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		val, err := in.eval(node.Expression)
		return signalNone, val, err

	case *ast.AssignStatement:
		val, err := in.eval(node.Value)
		if err != nil {
			return signalNone, nil, err
		}
		if err := in.env.SetPath(node.Target, val); err != nil {
			return signalNone, nil, located(err, node)
		}
		return signalNone, val, nil

	case *ast.BlockStatement:
		return in.execBlock(node)

	case *ast.IfStatement:
		return in.execIf(node)

	case *ast.WhileStatement:
		return in.execWhile(node)

	case *ast.LoopStatement:
		return in.execLoop(node)

	case *ast.ForStatement:
		return in.execFor(node)

	case *ast.WithStatement:
		return in.execWith(node)

	case *ast.ReturnStatement:
		if !in.env.InTool() {
			return signalNone, nil, located(object.NewError(object.ReturnOutsideTool, ""), node)
		}
		var val object.Object = object.NULL
		if node.ReturnValue != nil {
			v, err := in.eval(node.ReturnValue)
			if err != nil {
				return signalNone, nil, err
			}
			val = v
		}
		return signalReturn, val, nil

	case *ast.BreakStatement:
		if !in.env.InLoop() {
			return signalNone, nil, located(object.NewError(object.BreakOutsideLoop, ""), node)
		}
		return signalBreak, object.NULL, nil

	case *ast.ContinueStatement:
		if !in.env.InLoop() {
			return signalNone, nil, located(object.NewError(object.ContinueOutsideLoop, ""), node)
		}
		return signalContinue, object.NULL, nil

	case *ast.ToolDeclaration:
		in.env.DefineTool(object.NewTool(node))
		return signalNone, object.NULL, nil

	case *ast.SchemaDeclaration, *ast.StructDeclaration, *ast.ModelDeclaration, *ast.TemplateDeclaration:
		def, _ := object.NewTypeDef(node)
		in.env.DefineType(def)
		return signalNone, object.NULL, nil

	case *ast.ExportStatement:
		return in.exec(node.Decl)

	case *ast.LoadStatement:
		return signalNone, object.NULL, in.execLoad(node)
	}

	return signalNone, nil, located(object.NewCustomError("cannot execute %T", stmt), stmt)
}

// execBlock runs statements until the first non-none signal.
func (in *Interpreter) execBlock(block *ast.BlockStatement) (signal, object.Object, error) {
	var result object.Object = object.NULL
	for _, stmt := range block.Statements {
		sig, val, err := in.exec(stmt)
		if err != nil {
			return signalNone, nil, err
		}
		if sig != signalNone {
			return sig, val, nil
		}
		result = val
	}
	return signalNone, result, nil
}

func (in *Interpreter) execIf(node *ast.IfStatement) (signal, object.Object, error) {
	for _, arm := range node.Arms {
		cond, err := in.eval(arm.Condition)
		if err != nil {
			return signalNone, nil, err
		}
		if object.IsTruthy(cond) {
			return in.execBlock(arm.Body)
		}
	}
	if node.Else != nil {
		return in.execBlock(node.Else)
	}
	return signalNone, object.NULL, nil
}

// loopBody runs one iteration. done reports that the loop must stop; a
// return signal is passed through to the caller.
func (in *Interpreter) loopBody(body *ast.BlockStatement) (done bool, sig signal, val object.Object, err error) {
	sig, val, err = in.execBlock(body)
	if err != nil {
		return true, signalNone, nil, err
	}
	switch sig {
	case signalBreak:
		return true, signalNone, object.NULL, nil
	case signalReturn:
		return true, sig, val, nil
	}
	return false, signalNone, object.NULL, nil
}

func (in *Interpreter) execWhile(node *ast.WhileStatement) (signal, object.Object, error) {
	in.env.EnterLoop()
	defer in.env.ExitLoop()

	for {
		if err := in.ctx.Err(); err != nil {
			return signalNone, nil, located(err, node)
		}
		cond, err := in.eval(node.Condition)
		if err != nil {
			return signalNone, nil, err
		}
		if !object.IsTruthy(cond) {
			return signalNone, object.NULL, nil
		}
		if done, sig, val, err := in.loopBody(node.Body); done {
			return sig, val, err
		}
	}
}

func (in *Interpreter) execLoop(node *ast.LoopStatement) (signal, object.Object, error) {
	in.env.EnterLoop()
	defer in.env.ExitLoop()

	for {
		if err := in.ctx.Err(); err != nil {
			return signalNone, nil, located(err, node)
		}
		if done, sig, val, err := in.loopBody(node.Body); done {
			return sig, val, err
		}
	}
}

func (in *Interpreter) execFor(node *ast.ForStatement) (signal, object.Object, error) {
	iterable, err := in.eval(node.Iterable)
	if err != nil {
		return signalNone, nil, err
	}

	var items []object.Object
	switch it := iterable.(type) {
	case *object.List:
		items = it.Elements
	case *object.String:
		for _, r := range it.Value {
			items = append(items, &object.Char{Value: r})
		}
	default:
		return signalNone, nil, located(object.NewTypeMismatch("list or string", string(iterable.Type())), node.Iterable)
	}

	in.env.PushScope()
	defer in.env.PopScope()
	in.env.EnterLoop()
	defer in.env.ExitLoop()

	for _, item := range items {
		in.env.Set(node.Variable, item)
		if done, sig, val, err := in.loopBody(node.Body); done {
			return sig, val, err
		}
	}
	return signalNone, object.NULL, nil
}

func (in *Interpreter) execWith(node *ast.WithStatement) (signal, object.Object, error) {
	val, err := in.eval(node.Value)
	if err != nil {
		return signalNone, nil, err
	}

	in.env.PushScope()
	defer in.env.PopScope()
	if node.Alias != "" {
		in.env.Set(node.Alias, val)
	}
	return in.execBlock(node.Body)
}

// execLoad merges a module's exports into the global registries, or binds
// them as a module value when the statement has an alias.
func (in *Interpreter) execLoad(node *ast.LoadStatement) error {
	mod, err := in.loader.Load(in.ctx, node.Path, node.Run)
	if err != nil {
		return located(err, node)
	}
	if node.Alias != "" {
		in.env.Set(node.Alias, mod.Exports)
		return nil
	}
	for _, tool := range mod.Exports.Tools {
		in.env.DefineTool(tool)
	}
	for _, def := range mod.Exports.Types {
		in.env.DefineType(def)
	}
	return nil
}

// located converts err to a RuntimeError positioned at node unless a more
// specific position was already recorded.
func located(err error, node ast.Node) error {
	return object.WrapError(err).At(node.Span())
}
