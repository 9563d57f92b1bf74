package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/probe/internal/parser"
	"github.com/standardbeagle/probe/internal/types"
)

// unitLocator maps byte spans to the code unit enclosing them
type unitLocator struct {
	root            *tree_sitter.Node
	units           *parser.UnitTable
	leadingComments bool
	totalLines      int
}

// locate returns the range of the unit enclosing [start, end). ok is false
// when no unit encloses the span.
func (l *unitLocator) locate(start, end int) (lineRange, bool) {
	if end <= start {
		end = start + 1
	}
	n := l.root.NamedDescendantForByteRange(uint(start), uint(end))
	if n == nil {
		return lineRange{}, false
	}

	// A match inside a doc comment belongs to the unit the comment precedes
	if l.leadingComments && l.units.IsLeading(n.Kind()) {
		if unit := l.unitAfterLeading(n); unit != nil {
			return l.rangeOf(unit), true
		}
	}

	for p := n; p != nil; p = p.Parent() {
		if l.units.IsUnit(p) {
			return l.rangeOf(l.promote(p)), true
		}
	}
	return lineRange{}, false
}

// promote widens a unit to the wrappers directly around it
func (l *unitLocator) promote(n *tree_sitter.Node) *tree_sitter.Node {
	for {
		p := n.Parent()
		if p == nil || !l.units.IsWrapper(p.Kind()) {
			return n
		}
		n = p
	}
}

// unitAfterLeading finds the unit following a run of contiguous comments or
// attributes that starts with n
func (l *unitLocator) unitAfterLeading(n *tree_sitter.Node) *tree_sitter.Node {
	prevEnd := n.EndPosition().Row
	for s := n.NextNamedSibling(); s != nil; s = s.NextNamedSibling() {
		if s.StartPosition().Row > prevEnd+1 {
			return nil
		}
		if l.units.IsLeading(s.Kind()) {
			prevEnd = s.EndPosition().Row
			continue
		}
		if l.units.IsUnit(s) {
			return s
		}
		if l.units.IsWrapper(s.Kind()) {
			return s
		}
		return nil
	}
	return nil
}

// rangeOf converts a node to 1-based lines, pulling in contiguous leading
// comments and attributes
func (l *unitLocator) rangeOf(n *tree_sitter.Node) lineRange {
	startRow := n.StartPosition().Row
	endPos := n.EndPosition()
	endRow := endPos.Row
	if endPos.Column == 0 && endRow > startRow {
		endRow--
	}

	if l.leadingComments {
		for s := n.PrevNamedSibling(); s != nil && l.units.IsLeading(s.Kind()); s = s.PrevNamedSibling() {
			if s.EndPosition().Row+1 < startRow {
				break
			}
			startRow = s.StartPosition().Row
		}
	}

	r := lineRange{
		start: int(startRow) + 1,
		end:   int(endRow) + 1,
		prov:  types.ProvenanceAST,
		kind:  n.Kind(),
	}
	if r.end > l.totalLines {
		r.end = l.totalLines
	}
	if r.start > r.end {
		r.start = r.end
	}
	return r
}
