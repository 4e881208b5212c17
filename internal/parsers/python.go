package parsers

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// PythonExtractor finds function and class definitions in Python source.
type PythonExtractor struct {
	*treeSitterParser
}

// NewPythonExtractor creates a new Python definition extractor.
func NewPythonExtractor() *PythonExtractor {
	lang := sitter.NewLanguage(python.Language())
	return &PythonExtractor{
		treeSitterParser: newTreeSitterParser(lang, "python"),
	}
}

// Extract parses source and returns every function and class definition at
// any nesting depth, in syntax-tree traversal order. A syntactically invalid
// file yields a *ParseError and no definitions.
func (p *PythonExtractor) Extract(ctx context.Context, filePath string, source []byte) ([]Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := p.parse(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var defs []Definition
	p.collect(tree.RootNode(), source, 0, &defs)
	return defs, nil
}

// Validate reports whether source parses cleanly.
func (p *PythonExtractor) Validate(filePath string, source []byte) error {
	tree, err := p.parse(filePath, source)
	if err != nil {
		return err
	}
	tree.Close()
	return nil
}

// collect walks the tree depth-first; depth counts enclosing definitions.
func (p *PythonExtractor) collect(node *sitter.Node, source []byte, depth int, defs *[]Definition) {
	if node == nil {
		return
	}

	childDepth := depth
	switch node.Kind() {
	case "function_definition":
		*defs = append(*defs, p.definition(node, source, KindFunction, depth))
		childDepth++
	case "class_definition":
		*defs = append(*defs, p.definition(node, source, KindClass, depth))
		childDepth++
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.collect(node.Child(uint(i)), source, childDepth, defs)
	}
}

// definition converts a function_definition or class_definition node.
func (p *PythonExtractor) definition(node *sitter.Node, source []byte, kind Kind, depth int) Definition {
	startLine := int(node.StartPosition().Row) + 1
	def := Definition{
		Kind:          kind,
		Name:          extractNodeText(node.ChildByFieldName("name"), source),
		StartLine:     startLine,
		HeaderEndLine: startLine,
		EndLine:       int(node.EndPosition().Row) + 1,
		Depth:         depth,
		Text:          extractNodeText(node, source),
	}

	// Decorators belong to the wrapping decorated_definition node.
	if parent := node.Parent(); parent != nil && parent.Kind() == "decorated_definition" {
		def.Text = extractNodeText(parent, source)
	}

	if colon := findChildByType(node, ":"); colon != nil {
		def.HeaderEndLine = int(colon.StartPosition().Row) + 1
	}

	// A trailing comment after the colon may open the block on the header
	// line, so use the first real statement to decide.
	if body := node.ChildByFieldName("body"); body != nil {
		if stmt := firstNamedChildExcept(body, "comment"); stmt != nil {
			def.BodyLine = int(stmt.StartPosition().Row) + 1
			if def.BodyLine == def.HeaderEndLine {
				def.InlineBody = true
			}
			if doc := docString(stmt); doc != nil {
				def.DocStartLine = int(doc.StartPosition().Row) + 1
				def.DocEndLine = int(doc.EndPosition().Row) + 1
			}
		}
	}

	return def
}

// docString returns the string literal of an expression statement made of a
// single string, or nil.
func docString(stmt *sitter.Node) *sitter.Node {
	if stmt.Kind() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return nil
	}
	if s := stmt.NamedChild(0); s != nil && s.Kind() == "string" {
		return s
	}
	return nil
}
