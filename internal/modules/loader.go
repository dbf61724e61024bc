package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"loquora/internal/ast"
	"loquora/internal/object"
	"loquora/internal/parser"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const SourceExt = ".loq"

const stdPrefix = "std:"

var (
	ErrCircularImport = errors.New("circular import")
	ErrModuleNotFound = errors.New("module not found")
)

// Runner executes a module's top-level statements for load-and-run.
type Runner func(ctx context.Context, m *Module) error

// Module is one loaded source unit.
type Module struct {
	Name    string // slash-joined module path
	Key     string // canonical file path, or "std:" + Name
	File    string // "" for standard library modules
	Source  string
	Program *ast.Program
	Exports *object.Module

	initialized bool
	ran         bool
}

func (m *Module) Stdlib() bool { return m.File == "" }

type CacheStats struct {
	Modules int // cached and initialized
	Reads   int // source reads, files and registry
	Hits    int
}

// Loader resolves, parses and caches modules. It is not safe for concurrent
// use; one program run drives it at a time.
type Loader struct {
	roots    []string
	stdlib   Registry
	runner   Runner
	readFile func(string) ([]byte, error)

	cache   map[string]*Module
	loading []string

	reads int
	hits  int
}

type Option func(*Loader)

// WithRoots replaces the search roots, tried in order.
func WithRoots(roots ...string) Option {
	return func(l *Loader) { l.roots = append([]string(nil), roots...) }
}

func WithStdlib(r Registry) Option {
	return func(l *Loader) { l.stdlib = r }
}

func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(l *Loader) { l.readFile = fn }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		roots:    DefaultRoots(".", ""),
		readFile: os.ReadFile,
		cache:    make(map[string]*Module),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultRoots is the search order below root, followed by the lib
// directory of home when set.
func DefaultRoots(root, home string) []string {
	roots := []string{
		root,
		filepath.Join(root, "src"),
		filepath.Join(root, ".loq", "std"),
	}
	if home != "" {
		roots = append(roots, filepath.Join(home, "lib"))
	}
	return roots
}

func (l *Loader) SetRunner(r Runner) { l.runner = r }

func (l *Loader) Roots() []string { return append([]string(nil), l.roots...) }

// Load returns the module at path, loading it on first use. With run the
// module's statements are executed once through the runner.
func (l *Loader) Load(ctx context.Context, path []string, run bool) (*Module, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty module path", ErrModuleNotFound)
	}
	name := ModuleName(path)

	if m, ok := l.cache[stdPrefix+name]; ok {
		return l.cached(ctx, m, run)
	}

	key, file, src, err := l.locate(ctx, name, path)
	if err != nil {
		slog.Error("Failed to resolve module", slog.String("module", name), slog.Any("error", err))
		return nil, err
	}
	if m, ok := l.cache[key]; ok {
		return l.cached(ctx, m, run)
	}

	if file != "" {
		data, err := l.readFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading module '%s' (%s): %w", name, file, err)
		}
		src = string(data)
	}
	l.reads++
	slog.Debug("loading module", slog.String("module", name), slog.String("key", key))

	m := &Module{Name: name, Key: key, File: file, Source: src}
	l.cache[key] = m
	l.loading = append(l.loading, name)
	defer func() { l.loading = l.loading[:len(l.loading)-1] }()

	if err := l.initialize(ctx, m, run); err != nil {
		delete(l.cache, key)
		return nil, err
	}
	return m, nil
}

func (l *Loader) cached(ctx context.Context, m *Module, run bool) (*Module, error) {
	if !m.initialized {
		chain := append(append([]string(nil), l.loading...), m.Name)
		return nil, fmt.Errorf("%w: %s", ErrCircularImport, strings.Join(chain, " -> "))
	}
	l.hits++
	if run && !m.ran {
		if err := l.run(ctx, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (l *Loader) initialize(ctx context.Context, m *Module, run bool) error {
	program, err := parser.Parse(m.Source)
	if err != nil {
		return fmt.Errorf("module %s: %w", m.Name, err)
	}
	m.Program = program

	for _, stmt := range program.Statements {
		if ls, ok := stmt.(*ast.LoadStatement); ok {
			if _, err := l.Load(ctx, ls.Path, ls.Run); err != nil {
				return err
			}
		}
	}

	m.Exports = Exports(program)
	m.Exports.Path = m.Key
	m.initialized = true

	if run {
		return l.run(ctx, m)
	}
	return nil
}

func (l *Loader) run(ctx context.Context, m *Module) error {
	m.ran = true
	if l.runner == nil {
		return nil
	}
	if err := l.runner(ctx, m); err != nil {
		return fmt.Errorf("running module %s: %w", m.Name, err)
	}
	return nil
}

// locate finds the module source: the stdlib registry first, then the
// search roots. For files only the canonical path is returned.
func (l *Loader) locate(ctx context.Context, name string, path []string) (key, file, src string, err error) {
	if l.stdlib != nil {
		src, ok, err := l.stdlib.Lookup(ctx, name)
		if err != nil {
			return "", "", "", err
		}
		if ok {
			return stdPrefix + name, "", src, nil
		}
	}

	rel := filepath.Join(path...) + SourceExt
	for _, root := range l.roots {
		candidate := filepath.Join(root, rel)
		isSource, err := isSourceFile(candidate)
		if err != nil {
			return "", "", "", err
		}
		if !isSource {
			continue
		}
		canonical, err := canonicalPath(candidate)
		if err != nil {
			return "", "", "", err
		}
		return canonical, canonical, "", nil
	}

	return "", "", "", fmt.Errorf("%w: %s (searched %s)", ErrModuleNotFound, filepath.ToSlash(rel), strings.Join(l.roots, ", "))
}

func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %v", p, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func isSourceFile(filename string) (bool, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("error accessing file '%s': %v", filename, err)
	}
	return !info.IsDir(), nil
}

// Exports collects the export-wrapped tools, structs and templates of a
// program.
func Exports(program *ast.Program) *object.Module {
	mod := &object.Module{
		Tools: make(map[string]*object.ToolRef),
		Types: make(map[string]*object.TypeDef),
	}
	for _, stmt := range program.Statements {
		export, ok := stmt.(*ast.ExportStatement)
		if !ok {
			continue
		}
		if tool, ok := export.Decl.(*ast.ToolDeclaration); ok {
			mod.Tools[tool.Name] = object.NewTool(tool)
			continue
		}
		if def, ok := object.NewTypeDef(export.Decl); ok {
			mod.Types[def.Name] = def
		}
	}
	return mod
}

// Invalidate drops the cached module at file (or "std:name") so the next
// load reads it again. It reports whether anything was dropped.
func (l *Loader) Invalidate(file string) bool {
	key := file
	if !strings.HasPrefix(file, stdPrefix) {
		if canonical, err := canonicalPath(file); err == nil {
			key = canonical
		}
	}
	if _, ok := l.cache[key]; !ok {
		return false
	}
	delete(l.cache, key)
	return true
}

func (l *Loader) Clear() {
	l.cache = make(map[string]*Module)
	l.reads, l.hits = 0, 0
}

func (l *Loader) Stats() CacheStats {
	n := 0
	for _, m := range l.cache {
		if m.initialized {
			n++
		}
	}
	return CacheStats{Modules: n, Reads: l.reads, Hits: l.hits}
}

// Paths lists the files of the cached modules in order.
func (l *Loader) Paths() []string {
	var paths []string
	for _, m := range l.cache {
		if m.File != "" {
			paths = append(paths, m.File)
		}
	}
	sort.Strings(paths)
	return paths
}
