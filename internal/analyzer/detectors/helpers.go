package detectors

import (
	"strings"

	"apiguard/internal/context"
	"apiguard/internal/javasrc"
	"apiguard/internal/models"
	"apiguard/internal/tree"
)

// issueAt fills in the location fields of an issue for node id.
func issueAt(file *javasrc.File, id tree.NodeID, typ models.IssueType, severity models.Severity) models.Issue {
	n := file.Tree.Node(id)
	return models.Issue{
		Type:        typ,
		Severity:    severity,
		File:        file.Path,
		Line:        n.Pos.Line,
		Column:      n.Pos.Column,
		Method:      context.EnclosingMethod(file.Tree, id),
		CodeSnippet: strings.TrimSpace(file.Line(n.Pos.Line)),
	}
}

// walkKind calls fn for every node of kind k in source order.
func walkKind(t *tree.Tree, k tree.Kind, fn func(tree.NodeID)) {
	t.Walk(t.Root(), func(id tree.NodeID) bool {
		if t.Kind(id) == k {
			fn(id)
		}
		return true
	})
}
