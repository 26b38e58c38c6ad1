// Package guard decides whether a program point only executes on devices
// running at least a given API level.
//
// Two questions are answered, both by walking from the point towards the
// enclosing method:
//
//   - IsWithinVersionGuardConditional: is the point inside a branch of an
//     if, a ternary, or a && / || chain whose condition proves
//     SDK_INT >= api?
//   - IsPrecededByVersionGuardExit: is the point preceded by an if whose
//     exiting branch leaves only SDK_INT >= api behind?
//
// The analysis is syntactic and conservative. Shapes it cannot read count
// as unguarded; it never reports a guard it cannot derive. Calls allocate
// only per-call scratch state, so one Analyzer may serve concurrent
// callers on immutable trees.
package guard

import (
	"apiguard/internal/sdk"
	"apiguard/internal/tree"
)

// Result is the tri-state outcome of evaluating a condition.
type Result uint8

const (
	Unknown Result = iota
	Guarded
	NotGuarded
)

func (r Result) String() string {
	switch r {
	case Guarded:
		return "guarded"
	case NotGuarded:
		return "not guarded"
	default:
		return "unknown"
	}
}

// Branch says which outcome of a condition is known to have been taken.
type Branch uint8

const (
	TrueBranch Branch = iota
	FalseBranch
)

// Negate returns the opposite branch.
func (b Branch) Negate() Branch {
	if b == TrueBranch {
		return FalseBranch
	}
	return TrueBranch
}

func (b Branch) String() string {
	if b == TrueBranch {
		return "true"
	}
	return "false"
}

// VersionLookup resolves symbolic version names. *sdk.Table implements it.
type VersionLookup interface {
	Level(name string) (int, bool)
	CompatLevel(method string) (int, bool)
}

// Analyzer answers guard queries. It holds no per-query state.
type Analyzer struct {
	versions VersionLookup
}

// New returns an analyzer resolving names through versions, or through
// the default table when versions is nil.
func New(versions VersionLookup) *Analyzer {
	if versions == nil {
		versions = sdk.Default()
	}
	return &Analyzer{versions: versions}
}

// IsWithinVersionGuardConditional reports whether point only executes when
// an enclosing if, ternary, or && / || chain has established
// SDK_INT >= api.
func (a *Analyzer) IsWithinVersionGuardConditional(t *tree.Tree, point tree.NodeID, api int) bool {
	if t.Node(point) == nil {
		return false
	}
	q := a.newQuery(t, api)

	prev := point
	for cur := t.Parent(point); cur.IsValid(); prev, cur = cur, t.Parent(cur) {
		n := t.Node(cur)
		switch n.Kind {
		case tree.KindIf, tree.KindConditional:
			cond := t.Cond(cur)
			if prev == cond {
				continue
			}
			branch := TrueBranch
			if prev != t.Then(cur) {
				branch = FalseBranch
			}
			if q.eval(frame{cond: cond, branch: branch}) == Guarded {
				return true
			}
		case tree.KindBinary:
			var branch Branch
			switch n.Op {
			case tree.OpAnd:
				branch = TrueBranch
			case tree.OpOr:
				branch = FalseBranch
			default:
				continue
			}
			if q.eval(frame{cond: cur, branch: branch, before: prev}) == Guarded {
				return true
			}
		case tree.KindFile, tree.KindClass, tree.KindMethod:
			return false
		}
	}
	return false
}

// IsPrecededByVersionGuardExit reports whether point is preceded, in its
// block or an enclosing one, by an if statement that exits unconditionally
// unless SDK_INT >= api.
//
// Only the exiting branch's complement counts: if (SDK_INT < 24) return;
// guards what follows, but if (SDK_INT >= 24) return; does not, even
// though some analyzers accept either polarity.
func (a *Analyzer) IsPrecededByVersionGuardExit(t *tree.Tree, point tree.NodeID, api int) bool {
	q := a.newQuery(t, api)

	for cur := t.EnclosingStatement(point); cur.IsValid(); {
		for s := t.PrevStatement(cur); s.IsValid(); s = t.PrevStatement(s) {
			if t.Kind(s) == tree.KindIf && q.exitGuard(s) {
				return true
			}
		}
		// The enclosing statement itself is skipped: point lies inside it,
		// so its exits have not run yet.
		parent := t.Parent(cur)
		if !parent.IsValid() || t.Kind(parent).IsBoundary() {
			return false
		}
		cur = t.EnclosingStatement(parent)
	}
	return false
}

// IsGuarded combines both queries.
func (a *Analyzer) IsGuarded(t *tree.Tree, point tree.NodeID, api int) bool {
	return a.IsWithinVersionGuardConditional(t, point, api) ||
		a.IsPrecededByVersionGuardExit(t, point, api)
}

// Evaluate reports what cond proves about SDK_INT >= api once it is known
// to have taken branch.
func (a *Analyzer) Evaluate(t *tree.Tree, cond tree.NodeID, branch Branch, api int) Result {
	return a.newQuery(t, api).eval(frame{cond: cond, branch: branch})
}

// highest API level ImpliedLevel searches for
const levelCeiling = 1 << 20

// ImpliedLevel returns the highest API level that cond guarantees once it
// has taken branch. ok is false when it guarantees none, or when the
// guarantee lies beyond any level it can search.
func (a *Analyzer) ImpliedLevel(t *tree.Tree, cond tree.NodeID, branch Branch) (level int, ok bool) {
	if check, isCheck := a.Comparison(t, cond); isCheck {
		floor, ok := check.Floor(branch)
		return floor, ok && floor > 0
	}

	// Guarded-ness is monotone in api, so binary search for the last level
	// that still holds.
	lo, hi := 0, levelCeiling
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if a.Evaluate(t, cond, branch, mid) == Guarded {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == levelCeiling {
		return 0, false
	}
	return lo, lo > 0
}
