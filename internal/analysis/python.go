package analysis

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.uber.org/zap"

	"codecoach/internal/logging"
)

// PythonAnalyzer runs named structural queries over Python source using
// Tree-sitter. It satisfies the feedback engine's Analyzer interface.
type PythonAnalyzer struct {
	mu     sync.Mutex // sitter.Parser is not safe for concurrent use
	parser *sitter.Parser
	log    *zap.Logger
}

// NewPythonAnalyzer creates a Python analyzer.
func NewPythonAnalyzer() *PythonAnalyzer {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &PythonAnalyzer{
		parser: parser,
		log:    logging.Get(logging.CategoryAnalysis),
	}
}

// Analyze parses source and runs the query named by expression. A tree with
// syntax errors still produces a result (learner code is usually mid-edit);
// the "has_error" key reports it so matcher expressions can decide.
func (a *PythonAnalyzer) Analyze(ctx context.Context, expression, source string) (Result, error) {
	a.mu.Lock()
	tree, err := a.parser.ParseCtx(ctx, nil, []byte(source))
	a.mu.Unlock()
	if err != nil {
		a.log.Debug("parse failed", zap.Error(err))
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	content := []byte(source)

	switch expression {
	case QueryFunctions:
		return Result{
			"functions": collectNames(root, content, "function_definition"),
			"has_error": root.HasError(),
		}, nil
	case QueryClasses:
		return Result{
			"classes":   collectNames(root, content, "class_definition"),
			"has_error": root.HasError(),
		}, nil
	case QueryCalls:
		return Result{
			"calls":     collectCalls(root, content),
			"has_error": root.HasError(),
		}, nil
	case QueryImports:
		return Result{
			"imports":   collectImports(root, content),
			"has_error": root.HasError(),
		}, nil
	case QueryLoops:
		forCount := countNodes(root, "for_statement")
		whileCount := countNodes(root, "while_statement")
		return Result{
			"for":       forCount,
			"while":     whileCount,
			"total":     forCount + whileCount,
			"has_error": root.HasError(),
		}, nil
	case QuerySummary:
		forCount := countNodes(root, "for_statement")
		whileCount := countNodes(root, "while_statement")
		return Result{
			"functions": collectNames(root, content, "function_definition"),
			"classes":   collectNames(root, content, "class_definition"),
			"calls":     collectCalls(root, content),
			"imports":   collectImports(root, content),
			"loops":     forCount + whileCount,
			"has_error": root.HasError(),
		}, nil
	default:
		return nil, &ErrUnknownQuery{Expression: expression}
	}
}

// walk visits every named node in the tree.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

// collectNames gathers the "name" field of every node of the given type.
func collectNames(root *sitter.Node, content []byte, nodeType string) []string {
	names := []string{}
	walk(root, func(n *sitter.Node) {
		if n.Type() != nodeType {
			return
		}
		name := n.ChildByFieldName("name")
		if name != nil {
			names = append(names, nodeText(name, content))
		}
	})
	return names
}

// collectCalls gathers callee names. Attribute calls like obj.method() are
// reported by their full dotted text.
func collectCalls(root *sitter.Node, content []byte) []string {
	calls := []string{}
	walk(root, func(n *sitter.Node) {
		if n.Type() != "call" {
			return
		}
		fn := n.ChildByFieldName("function")
		if fn != nil {
			calls = append(calls, nodeText(fn, content))
		}
	})
	return calls
}

func collectImports(root *sitter.Node, content []byte) []string {
	imports := []string{}
	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				imports = append(imports, nodeText(n.NamedChild(i), content))
			}
		case "import_from_statement":
			module := n.ChildByFieldName("module_name")
			if module != nil {
				imports = append(imports, nodeText(module, content))
			}
		}
	})
	// Strip "as" aliases for stable matching.
	for i, imp := range imports {
		if idx := strings.Index(imp, " as "); idx > 0 {
			imports[i] = imp[:idx]
		}
	}
	return imports
}

func countNodes(root *sitter.Node, nodeType string) int {
	count := 0
	walk(root, func(n *sitter.Node) {
		if n.Type() == nodeType {
			count++
		}
	})
	return count
}
