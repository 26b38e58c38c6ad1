package guard

import (
	"strings"

	"apiguard/internal/tree"
)

// frame is one condition to evaluate.
//
// A plain frame (before unset) stands for a condition that has fully
// executed: an if or ternary condition, or the body of an inlined helper or
// constant. A frame with before set is the && / || chain that contains the
// query point; only operands left of before have executed, the rest have
// not run yet and prove nothing.
type frame struct {
	cond   tree.NodeID
	branch Branch
	before tree.NodeID
}

// query is the scratch state of one call.
type query struct {
	a   *Analyzer
	t   *tree.Tree
	api int

	// declarations currently being inlined
	inlining map[tree.NodeID]bool
}

func (a *Analyzer) newQuery(t *tree.Tree, api int) *query {
	return &query{a: a, t: t, api: api}
}

func (q *query) enter(decl tree.NodeID) bool {
	if q.inlining[decl] {
		return false
	}
	if q.inlining == nil {
		q.inlining = make(map[tree.NodeID]bool)
	}
	q.inlining[decl] = true
	return true
}

func (q *query) leave(decl tree.NodeID) {
	delete(q.inlining, decl)
}

func (q *query) eval(f frame) Result {
	n := q.t.Node(f.cond)
	if n == nil {
		return Unknown
	}

	switch n.Kind {
	case tree.KindParen:
		return q.eval(frame{cond: q.t.Operand(f.cond), branch: f.branch})
	case tree.KindNot:
		return q.eval(frame{cond: q.t.Operand(f.cond), branch: f.branch.Negate()})
	case tree.KindBinary:
		if n.Op.IsComparison() {
			return q.compare(f.cond, f.branch)
		}
		return q.chain(f, n.Op)
	case tree.KindCall:
		return q.call(f.cond, n, f.branch)
	case tree.KindRef:
		return q.constant(n, f.branch)
	case tree.KindLiteral, tree.KindConditional, tree.KindOtherExpr,
		tree.KindFile, tree.KindClass, tree.KindMethod, tree.KindField, tree.KindLambda,
		tree.KindBlock, tree.KindIf, tree.KindReturn, tree.KindThrow, tree.KindExprStmt, tree.KindOtherStmt,
		tree.KindInvalid:
		return Unknown
	}
	return Unknown
}

func (q *query) compare(id tree.NodeID, branch Branch) Result {
	check, ok := q.a.Comparison(q.t, id)
	if !ok {
		return Unknown
	}
	return q.floor(check, branch)
}

func (q *query) floor(check VersionCheck, branch Branch) Result {
	if floor, ok := check.Floor(branch); ok && floor >= q.api {
		return Guarded
	}
	return NotGuarded
}

// chain handles && and ||. Knowing a && b is true means every operand is
// true, knowing a || b is false means every operand is false; either way
// one guarding operand suffices. The other two combinations reveal nothing
// about any single operand.
func (q *query) chain(f frame, op tree.Op) Result {
	switch {
	case op == tree.OpAnd && f.branch == TrueBranch:
	case op == tree.OpOr && f.branch == FalseBranch:
	default:
		return Unknown
	}

	for _, operand := range q.t.Operands(f.cond) {
		if operand == f.before {
			break
		}
		if q.eval(frame{cond: operand, branch: f.branch}) == Guarded {
			return Guarded
		}
	}
	return Unknown
}

// call inlines zero-argument helpers whose body is a single return. A call
// that does not resolve in this file falls back to the BuildCompat
// isAtLeastX naming convention when it is unqualified or made on BuildCompat.
func (q *query) call(id tree.NodeID, n *tree.Node, branch Branch) Result {
	if len(q.t.Args(id)) != 0 {
		return Unknown
	}

	if n.Decl.IsValid() {
		expr := q.t.SingleReturn(n.Decl)
		if q.t.Kind(n.Decl) != tree.KindMethod || !expr.IsValid() || !q.enter(n.Decl) {
			return Unknown
		}
		defer q.leave(n.Decl)
		return q.eval(frame{cond: expr, branch: branch})
	}

	if !compatCall(n) {
		return Unknown
	}
	if level, ok := q.a.versions.CompatLevel(tree.LastSegment(n.Name)); ok {
		return q.floor(VersionCheck{Op: tree.OpGE, Level: level}, branch)
	}
	return Unknown
}

func compatCall(n *tree.Node) bool {
	i := strings.LastIndexByte(n.Name, '.')
	if i < 0 {
		return !n.Recv.IsValid()
	}
	return tree.LastSegment(n.Name[:i]) == "BuildCompat"
}

// constant follows a reference to a static final field into its initializer.
func (q *query) constant(n *tree.Node, branch Branch) Result {
	decl := q.t.Node(n.Decl)
	if decl == nil || decl.Kind != tree.KindField || !decl.Static || !decl.Final {
		return Unknown
	}
	init := q.t.Init(n.Decl)
	if !init.IsValid() || !q.enter(n.Decl) {
		return Unknown
	}
	defer q.leave(n.Decl)
	return q.eval(frame{cond: init, branch: branch})
}

// exitGuard reports whether the if statement s exits on one branch and
// leaves SDK_INT >= api on the fall-through path.
func (q *query) exitGuard(s tree.NodeID) bool {
	cond := q.t.Cond(s)
	if exits(q.t, q.t.Then(s)) && q.eval(frame{cond: cond, branch: FalseBranch}) == Guarded {
		return true
	}
	if els := q.t.Else(s); els.IsValid() && exits(q.t, els) &&
		q.eval(frame{cond: cond, branch: TrueBranch}) == Guarded {
		return true
	}
	return false
}

// exits reports whether control never falls out of statement s.
func exits(t *tree.Tree, s tree.NodeID) bool {
	switch t.Kind(s) {
	case tree.KindReturn, tree.KindThrow:
		return true
	case tree.KindBlock:
		kids := t.Kids(s)
		return len(kids) > 0 && exits(t, kids[len(kids)-1])
	case tree.KindIf:
		els := t.Else(s)
		return els.IsValid() && exits(t, t.Then(s)) && exits(t, els)
	default:
		return false
	}
}
