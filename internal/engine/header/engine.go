package header

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for the extractor.
// Returns true if the handler has consumed the subtree and the walker should not descend.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries shared state/helpers used by all handlers.
type ExtractionContext struct {
	Source []byte
	Header *Header
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if handler, ok := e.handlers[node.Kind()]; ok {
		if handler(ctx, node) {
			return
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(c.Source)
}

// Line returns the 1-based start line of node.
func (c *ExtractionContext) Line(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPosition().Row) + 1
}

func (c *ExtractionContext) anonymousName(node *sitter.Node) string {
	pos := node.StartPosition()
	return AnonymousName(c.Header.Path, int(pos.Row)+1, int(pos.Column)+1)
}

// DocFor returns the cleaned doc comment attached to node: a comment ending
// on the line directly above it, or a trailing "/**<" comment on its line.
func (c *ExtractionContext) DocFor(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start := node.StartPosition().Row
	if prev := node.PrevNamedSibling(); prev != nil && prev.Kind() == "comment" {
		text := c.Text(prev)
		if !isTrailingComment(text) && prev.EndPosition().Row+1 >= start {
			return CleanComment(text)
		}
	}
	if next := node.NextNamedSibling(); next != nil && next.Kind() == "comment" {
		text := c.Text(next)
		if isTrailingComment(text) && next.StartPosition().Row == node.EndPosition().Row {
			return CleanComment(text)
		}
	}
	return ""
}

func isTrailingComment(text string) bool {
	return len(text) >= 4 && (text[:4] == "/**<" || text[:4] == "///<")
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil || node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

// childrenByField collects every child stored under field.
func childrenByField(node *sitter.Node, field string) []*sitter.Node {
	if node == nil {
		return nil
	}
	cursor := node.Walk()
	defer cursor.Close()

	children := node.ChildrenByFieldName(field, cursor)
	out := make([]*sitter.Node, 0, len(children))
	for i := range children {
		out = append(out, &children[i])
	}
	return out
}
