package detectors

import (
	"fmt"
	"strings"

	"apiguard/internal/config"
	"apiguard/internal/context"
	"apiguard/internal/javasrc"
	"apiguard/internal/models"
	"apiguard/internal/tree"
)

// APILevelDetector flags calls to APIs introduced after the app's minimum
// SDK that run without a version guard.
type APILevelDetector struct {
	requirements     map[string]int
	honorAnnotations bool
}

func NewAPILevelDetector(rule config.NewAPIRule) *APILevelDetector {
	return &APILevelDetector{
		requirements:     rule.Requirements,
		honorAnnotations: rule.HonorAnnotations,
	}
}

func (d *APILevelDetector) Name() string {
	return "New API Detector"
}

func (d *APILevelDetector) Detect(file *javasrc.File, ctx *context.AnalysisContext) []models.Issue {
	v := &apiLevelVisitor{
		d:      d,
		file:   file,
		ctx:    ctx,
		issues: make([]models.Issue, 0),
	}
	walkKind(file.Tree, tree.KindCall, v.check)
	return v.issues
}

// Required returns the level configured for a call name. The full dotted
// name is tried first, then each shorter suffix down to the bare method
// name.
func (d *APILevelDetector) Required(name string) (level int, key string, ok bool) {
	for key = name; ; {
		if level, ok = d.requirements[key]; ok {
			return level, key, true
		}
		i := strings.IndexByte(key, '.')
		if i < 0 {
			return 0, "", false
		}
		key = key[i+1:]
	}
}

type apiLevelVisitor struct {
	d      *APILevelDetector
	file   *javasrc.File
	ctx    *context.AnalysisContext
	issues []models.Issue
}

func (v *apiLevelVisitor) check(id tree.NodeID) {
	t := v.file.Tree
	name := t.Node(id).Name
	level, key, ok := v.d.Required(name)
	if !ok || level <= v.ctx.MinSdk {
		return
	}
	if v.d.honorAnnotations && v.ctx.DeclaredLevel(t, id) >= level {
		return
	}
	if v.ctx.Suppressed(t, id, "NewApi") {
		return
	}
	if v.ctx.Guards.IsGuarded(t, id, level) {
		return
	}

	issue := issueAt(v.file, id, models.IssueNewAPI, models.SeverityHigh)
	issue.API = level
	issue.Message = fmt.Sprintf("Call requires API level %d (current min is %d): `%s`", level, v.ctx.MinSdk, key)
	issue.Suggestion = v.suggestion(level)
	v.issues = append(v.issues, issue)
}

func (v *apiLevelVisitor) suggestion(level int) string {
	code := v.ctx.CodeName(level)
	return fmt.Sprintf(`Surround the call with a version check:
if (Build.VERSION.SDK_INT >= %s) { ... }
or annotate the enclosing method with @RequiresApi(%s)`, code, code)
}
