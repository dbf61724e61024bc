package parser

import (
	"fmt"
	"loquora/internal/ast"
	"os"

	"github.com/davecgh/go-spew/spew"
)

var astDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// RenderAST produces an indented dump of every node and its fields.
func RenderAST(node ast.Node) string {
	return astDumper.Sdump(node)
}

// WriteASTToFile takes a root AST node and writes its dump to filename.
func WriteASTToFile(node ast.Node, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create AST dump file: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, node.String()); err != nil {
		return fmt.Errorf("failed to write AST: %w", err)
	}
	astDumper.Fdump(file, node)
	return nil
}
