package detectors

import (
	"fmt"

	"apiguard/internal/context"
	"apiguard/internal/javasrc"
	"apiguard/internal/models"
	"apiguard/internal/tree"
)

// ObsoleteSdkIntDetector flags SDK_INT comparisons whose outcome the
// minimum SDK already fixes.
type ObsoleteSdkIntDetector struct{}

func NewObsoleteSdkIntDetector() *ObsoleteSdkIntDetector {
	return &ObsoleteSdkIntDetector{}
}

func (d *ObsoleteSdkIntDetector) Name() string {
	return "Obsolete SDK_INT Detector"
}

func (d *ObsoleteSdkIntDetector) Detect(file *javasrc.File, ctx *context.AnalysisContext) []models.Issue {
	issues := make([]models.Issue, 0)
	t := file.Tree

	walkKind(t, tree.KindBinary, func(id tree.NodeID) {
		if !t.Node(id).Op.IsComparison() {
			return
		}
		check, ok := ctx.Guards.Comparison(t, id)
		if !ok {
			return
		}
		outcome, decided := check.Decided(ctx.MinSdk)
		if !decided || ctx.Suppressed(t, id, "ObsoleteSdkInt") {
			return
		}

		issue := issueAt(file, id, models.IssueObsoleteSdkInt, models.SeverityLow)
		issue.API = check.Level
		issue.Message = fmt.Sprintf("Unnecessary; `%s` is always %t since min SDK is %d",
			file.Text(id), outcome, ctx.MinSdk)
		if outcome {
			issue.Suggestion = "Remove the check and keep the guarded code unconditionally"
		} else {
			issue.Suggestion = "Remove the check and the code it guards; it can never run"
		}
		issues = append(issues, issue)
	})

	return issues
}
