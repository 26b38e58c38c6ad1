package guard

import (
	"apiguard/internal/sdk"
	"apiguard/internal/tree"
)

// VersionCheck is a comparison normalized to SDK_INT <Op> Level.
type VersionCheck struct {
	Op    tree.Op
	Level int
}

// Floor returns the lowest SDK_INT that is certain once the comparison is
// known to have taken branch b. ok is false when that branch bounds SDK_INT
// only from above, or not at all.
func (c VersionCheck) Floor(b Branch) (floor int, ok bool) {
	taken := b == TrueBranch
	switch c.Op {
	case tree.OpGE:
		return c.Level, taken
	case tree.OpGT:
		return c.Level + 1, taken
	case tree.OpEQ:
		return c.Level, taken
	case tree.OpLE:
		return c.Level + 1, !taken
	case tree.OpLT:
		return c.Level, !taken
	case tree.OpNE:
		return c.Level, !taken
	default:
		return 0, false
	}
}

// Decided reports whether the comparison has a fixed outcome on every
// device running minSdk or later, and what that outcome is.
func (c VersionCheck) Decided(minSdk int) (outcome, ok bool) {
	switch c.Op {
	case tree.OpGE:
		return true, c.Level <= minSdk
	case tree.OpGT:
		return true, c.Level < minSdk
	case tree.OpLT:
		return false, c.Level <= minSdk
	case tree.OpLE:
		return false, c.Level < minSdk
	case tree.OpEQ:
		return false, c.Level < minSdk
	case tree.OpNE:
		return true, c.Level < minSdk
	default:
		return false, false
	}
}

// constant chains deeper than this are not followed
const maxConstantDepth = 4

// Comparison recognizes expr as a comparison between SDK_INT and a
// resolvable API level. Operands may appear in either order; a swapped
// comparison is returned with its operator mirrored, so 21 <= SDK_INT
// reads as SDK_INT >= 21.
func (a *Analyzer) Comparison(t *tree.Tree, expr tree.NodeID) (VersionCheck, bool) {
	n := t.Node(t.Unparen(expr))
	if n == nil || n.Kind != tree.KindBinary || !n.Op.IsComparison() || len(n.Kids) != 2 {
		return VersionCheck{}, false
	}
	left, right := n.Kids[0], n.Kids[1]

	switch {
	case isSdkInt(t, left) && !isSdkInt(t, right):
		if level, ok := a.level(t, right, 0); ok {
			return VersionCheck{Op: n.Op, Level: level}, true
		}
	case isSdkInt(t, right) && !isSdkInt(t, left):
		if level, ok := a.level(t, left, 0); ok {
			return VersionCheck{Op: n.Op.Mirror(), Level: level}, true
		}
	}
	return VersionCheck{}, false
}

func isSdkInt(t *tree.Tree, id tree.NodeID) bool {
	n := t.Node(t.Unparen(id))
	return n != nil && n.Kind == tree.KindRef && !n.Shadowed && sdk.IsSdkInt(n.Name)
}

// level resolves an integer literal, a version-code name, or a static final
// constant initialized with either. Names taken by a parameter, a local or
// several members never count as version codes.
func (a *Analyzer) level(t *tree.Tree, id tree.NodeID, depth int) (int, bool) {
	n := t.Node(t.Unparen(id))
	if n == nil {
		return 0, false
	}
	switch n.Kind {
	case tree.KindLiteral:
		if n.IsInt {
			return int(n.Value), true
		}
	case tree.KindRef:
		if decl := t.Node(n.Decl); decl != nil {
			if decl.Kind != tree.KindField || !decl.Static || !decl.Final || depth >= maxConstantDepth {
				return 0, false
			}
			return a.level(t, t.Init(n.Decl), depth+1)
		}
		if n.Shadowed {
			return 0, false
		}
		return a.versions.Level(n.Name)
	}
	return 0, false
}
