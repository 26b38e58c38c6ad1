package context

import (
	"strconv"

	"apiguard/internal/config"
	"apiguard/internal/guard"
	"apiguard/internal/sdk"
	"apiguard/internal/tree"
)

// AnalysisContext provides shared analysis state to detectors
type AnalysisContext struct {
	MinSdk   int
	Versions *sdk.Table
	Guards   *guard.Analyzer
	Config   *config.Config
}

// New builds the context for cfg, falling back to defaults when cfg is nil.
func New(cfg *config.Config) *AnalysisContext {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	versions := cfg.Versions()
	return &AnalysisContext{
		MinSdk:   cfg.Analysis.MinSdk,
		Versions: versions,
		Guards:   guard.New(versions),
		Config:   cfg,
	}
}

// CodeName renders level as a Build.VERSION_CODES reference when the level
// has a name, and as a bare number otherwise.
func (c *AnalysisContext) CodeName(level int) string {
	if name := c.Versions.Name(level); name != "" {
		return "Build.VERSION_CODES." + name
	}
	return strconv.Itoa(level)
}

// Suppressed reports whether a declaration enclosing id suppresses issue.
func (c *AnalysisContext) Suppressed(t *tree.Tree, id tree.NodeID, issue string) bool {
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		n := t.Node(cur)
		if n == nil {
			break
		}
		switch n.Kind {
		case tree.KindMethod, tree.KindClass, tree.KindField:
			if n.Suppresses(issue) {
				return true
			}
		}
	}
	return false
}

// DeclaredLevel returns the highest @RequiresApi / @TargetApi level on the
// declarations enclosing id.
func (c *AnalysisContext) DeclaredLevel(t *tree.Tree, id tree.NodeID) int {
	level := 0
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		if n := t.Node(cur); n != nil {
			level = max(level, n.RequiresAPI)
		}
	}
	return level
}

// EnclosingMethod names the method containing id, "" at class level.
func EnclosingMethod(t *tree.Tree, id tree.NodeID) string {
	if m := t.Enclosing(id, tree.KindMethod); m.IsValid() {
		return t.Node(m).Name
	}
	return ""
}
