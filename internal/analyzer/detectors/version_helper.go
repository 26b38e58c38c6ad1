package detectors

import (
	"fmt"

	"apiguard/internal/config"
	"apiguard/internal/context"
	"apiguard/internal/guard"
	"apiguard/internal/javasrc"
	"apiguard/internal/models"
	"apiguard/internal/tree"
)

// VersionHelperDetector flags zero-argument helpers that only return a
// version check and lack @ChecksSdkIntAtLeast.
type VersionHelperDetector struct {
	publicOnly bool
}

func NewVersionHelperDetector(rule config.AnnotateVersionCheckRule) *VersionHelperDetector {
	return &VersionHelperDetector{publicOnly: rule.PublicOnly}
}

func (d *VersionHelperDetector) Name() string {
	return "Version Check Annotation Detector"
}

func (d *VersionHelperDetector) Detect(file *javasrc.File, ctx *context.AnalysisContext) []models.Issue {
	issues := make([]models.Issue, 0)
	t := file.Tree

	walkKind(t, tree.KindMethod, func(id tree.NodeID) {
		m := t.Node(id)
		if m.Params != 0 || m.ChecksSdkInt || (d.publicOnly && !m.Public) {
			return
		}
		expr := t.SingleReturn(id)
		if !expr.IsValid() {
			return
		}
		level, ok := ctx.Guards.ImpliedLevel(t, expr, guard.TrueBranch)
		if !ok || ctx.Suppressed(t, id, "AnnotateVersionCheck") {
			return
		}

		issue := issueAt(file, id, models.IssueAnnotateVersionCheck, models.SeverityMedium)
		issue.Method = m.Name
		issue.API = level
		issue.Message = fmt.Sprintf("Method '%s' is a version check; annotate it with `@ChecksSdkIntAtLeast(api = %s)`",
			m.Name, ctx.CodeName(level))
		issue.Suggestion = fmt.Sprintf("Add @ChecksSdkIntAtLeast(api = %s) so callers are recognized as guarded",
			ctx.CodeName(level))
		issues = append(issues, issue)
	})

	return issues
}
