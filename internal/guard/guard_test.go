package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiguard/internal/sdk"
	"apiguard/internal/tree"
)

type fixture struct {
	b *tree.Builder
}

func newFixture() *fixture {
	return &fixture{b: tree.NewBuilder()}
}

func (f *fixture) sdkInt() tree.NodeID {
	return f.b.Ref("Build.VERSION.SDK_INT")
}

// cmp builds SDK_INT <op> level.
func (f *fixture) cmp(op tree.Op, level int64) tree.NodeID {
	return f.b.Bin(op, f.sdkInt(), f.b.Lit(level))
}

// rcmp builds level <op> SDK_INT.
func (f *fixture) rcmp(op tree.Op, level int64) tree.NodeID {
	return f.b.Bin(op, f.b.Lit(level), f.sdkInt())
}

// point returns a call expression and the statement holding it.
func (f *fixture) point() (call, stmt tree.NodeID) {
	call = f.b.Call("setElevation")
	return call, f.b.Stmt(call)
}

func (f *fixture) method(stmts ...tree.NodeID) tree.NodeID {
	return f.b.Method("onCreate", 0, f.b.Block(stmts...))
}

func (f *fixture) build(members ...tree.NodeID) *tree.Tree {
	return f.b.Build(f.b.File(f.b.Class("MainActivity", members...)))
}

func TestWithin_ThenBranch(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	ifs := f.b.If(f.cmp(tree.OpGE, 21), f.b.Block(stmt), tree.NoNode)
	tr := f.build(f.method(ifs))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 19))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 23))
}

func TestWithin_ElseBranchOfLessThan(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	_, other := f.point()
	ifs := f.b.If(f.cmp(tree.OpLT, 21), f.b.Block(other), f.b.Block(stmt))
	tr := f.build(f.method(ifs))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 22))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, tr.Kids(tr.Then(ifs))[0], 2))
}

func TestWithin_ConjunctionRespectsOrder(t *testing.T) {
	t.Run("comparison before point", func(t *testing.T) {
		f := newFixture()
		call := f.b.Call("setElevation")
		chain := f.b.Bin(tree.OpAnd, f.b.Call("a"), f.cmp(tree.OpGE, 21), f.b.Call("b", call))
		tr := f.build(f.method(f.b.Stmt(chain)))

		assert.True(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
	})

	t.Run("comparison after point", func(t *testing.T) {
		f := newFixture()
		call := f.b.Call("setElevation")
		chain := f.b.Bin(tree.OpAnd, f.b.Call("a"), f.b.Call("b", call), f.cmp(tree.OpGE, 21))
		tr := f.build(f.method(f.b.Stmt(chain)))

		assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
	})

	t.Run("point is the comparison operand itself", func(t *testing.T) {
		f := newFixture()
		guardOp := f.cmp(tree.OpGE, 21)
		chain := f.b.Bin(tree.OpAnd, guardOp, f.b.Call("b"))
		tr := f.build(f.method(f.b.Stmt(chain)))

		assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, guardOp, 21))
	})
}

func TestWithin_Disjunction(t *testing.T) {
	f := newFixture()
	call := f.b.Call("setElevation")
	chain := f.b.Bin(tree.OpOr, f.cmp(tree.OpLT, 21), call)
	tr := f.build(f.method(f.b.Return(chain)))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 22))
}

func TestWithin_DisjunctionOfGreaterEqualIsNotAGuard(t *testing.T) {
	f := newFixture()
	call := f.b.Call("setElevation")
	chain := f.b.Bin(tree.OpOr, f.cmp(tree.OpGE, 21), call)
	tr := f.build(f.method(f.b.Return(chain)))

	assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_Ternary(t *testing.T) {
	f := newFixture()
	thenCall := f.b.Call("newApi")
	elseCall := f.b.Call("oldApi")
	cond := f.cmp(tree.OpGE, 23)
	tern := f.b.Ternary(cond, thenCall, elseCall)
	tr := f.build(f.method(f.b.Return(tern)))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, thenCall, 23))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, elseCall, 23))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, cond, 23))
}

func TestWithin_PointInsideCondition(t *testing.T) {
	f := newFixture()
	call := f.b.Call("check")
	cond := f.b.Bin(tree.OpAnd, f.cmp(tree.OpGE, 21), call)
	_, stmt := f.point()
	outer := f.b.If(f.cmp(tree.OpLT, 10), f.b.Block(), f.b.Block(f.b.If(cond, f.b.Block(stmt), tree.NoNode)))
	tr := f.build(f.method(outer))

	a := New(nil)
	// The && operand to the left guards the call; the enclosing if condition
	// is never used to guard its own operands.
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 22))
}

func TestWithin_Negation(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	cond := f.b.Not(f.b.Paren(f.cmp(tree.OpLT, 21)))
	tr := f.build(f.method(f.b.If(cond, f.b.Block(stmt), tree.NoNode)))

	assert.True(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_NestedNotPassesThroughChain(t *testing.T) {
	f := newFixture()
	call := f.b.Call("setElevation")
	chain := f.b.Bin(tree.OpAnd, f.cmp(tree.OpGE, 21), f.b.Not(f.b.Paren(call)))
	tr := f.build(f.method(f.b.Stmt(chain)))

	assert.True(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_KeepsWalkingPastUnhelpfulConditions(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	inner := f.b.If(f.cmp(tree.OpLT, 16), f.b.Block(), f.b.Block(stmt))
	outer := f.b.If(f.cmp(tree.OpGE, 21), f.b.Block(inner), tree.NoNode)
	tr := f.build(f.method(outer))

	assert.True(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_StopsAtMethodBoundary(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	inner := f.b.Method("run", 0, f.b.Block(stmt))
	anon := f.b.Class("", inner)
	outer := f.b.If(f.cmp(tree.OpGE, 21), f.b.Block(f.b.Stmt(f.b.Expr(anon))), tree.NoNode)
	tr := f.build(f.method(outer))

	assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_LambdaIsNotABoundary(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	lambda := f.b.Lambda(f.b.Block(stmt))
	outer := f.b.If(f.cmp(tree.OpGE, 21), f.b.Block(f.b.Stmt(f.b.Call("post", lambda))), tree.NoNode)
	tr := f.build(f.method(outer))

	assert.True(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_VersionCodeName(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	cond := f.b.Bin(tree.OpGE, f.sdkInt(), f.b.Ref("Build.VERSION_CODES.LOLLIPOP"))
	tr := f.build(f.method(f.b.If(cond, f.b.Block(stmt), tree.NoNode)))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 22))
}

func TestWithin_UnknownVersionNameIsNeverAGuard(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	cond := f.b.Bin(tree.OpGE, f.sdkInt(), f.b.Ref("Build.VERSION_CODES.CUR_DEVELOPMENT"))
	tr := f.build(f.method(f.b.If(cond, f.b.Block(stmt), tree.NoNode)))

	a := New(nil)
	for _, api := range []int{1, 21, 10000} {
		assert.False(t, a.IsWithinVersionGuardConditional(tr, call, api))
	}
	assert.Equal(t, Unknown, a.Evaluate(tr, cond, TrueBranch, 21))

	// The same name resolves once the table knows it.
	custom := New(sdk.Default().WithOverrides(map[string]int{"CUR_DEVELOPMENT": 10000}))
	assert.True(t, custom.IsWithinVersionGuardConditional(tr, call, 10000))
}

func TestWithin_StaticFinalField(t *testing.T) {
	build := func(static, final bool) (*tree.Tree, tree.NodeID) {
		f := newFixture()
		field := f.b.Field("IS_LOLLIPOP", static, final, f.cmp(tree.OpGE, 21))
		ref := f.b.Ref("IS_LOLLIPOP")
		f.b.Resolve(ref, field)
		call, stmt := f.point()
		tr := f.build(field, f.method(f.b.If(ref, f.b.Block(stmt), tree.NoNode)))
		return tr, call
	}

	a := New(nil)

	tr, call := build(true, true)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 22))

	tr, call = build(true, false)
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 21), "mutable field")

	tr, call = build(false, true)
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 21), "instance field")
}

func TestWithin_HelperMethodInlining(t *testing.T) {
	f := newFixture()
	helper := f.b.Method("supportsElevation", 0, f.b.Block(f.b.Return(f.cmp(tree.OpGE, 21))))
	use := f.b.Call("supportsElevation")
	f.b.Resolve(use, helper)
	call, stmt := f.point()
	tr := f.build(helper, f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode)))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 22))
}

func TestWithin_HelperWithArgumentsIsNotInlined(t *testing.T) {
	f := newFixture()
	helper := f.b.Method("atLeast", 1, f.b.Block(f.b.Return(f.cmp(tree.OpGE, 21))))
	use := f.b.Call("atLeast", f.b.Lit(21))
	f.b.Resolve(use, helper)
	call, stmt := f.point()
	tr := f.build(helper, f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode)))

	assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_HelperWithLongerBodyIsNotInlined(t *testing.T) {
	f := newFixture()
	helper := f.b.Method("supportsElevation", 0,
		f.b.Block(f.b.Stmt(f.b.Call("log")), f.b.Return(f.cmp(tree.OpGE, 21))))
	use := f.b.Call("supportsElevation")
	f.b.Resolve(use, helper)
	call, stmt := f.point()
	tr := f.build(helper, f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode)))

	assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
}

func TestWithin_CompatNamingConvention(t *testing.T) {
	f := newFixture()
	use := f.b.Call("isAtLeastO")
	call, stmt := f.point()
	tr := f.build(f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode)))

	a := New(nil)
	assert.True(t, a.IsWithinVersionGuardConditional(tr, call, 26))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 27))
}

func TestWithin_ResolvedHelperNeverFallsBackToNaming(t *testing.T) {
	build := func(body func(b *tree.Builder) tree.NodeID) (*tree.Tree, tree.NodeID) {
		f := newFixture()
		helper := f.b.Method("isAtLeastT", 0, body(f.b))
		use := f.b.Call("isAtLeastT")
		f.b.Resolve(use, helper)
		call, stmt := f.point()
		return f.build(helper, f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode))), call
	}
	a := New(nil)

	tr, call := build(func(b *tree.Builder) tree.NodeID {
		return b.Block(b.Stmt(b.Call("log")), b.Return(b.Lit(0)))
	})
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 33), "longer body")

	tr, call = build(func(b *tree.Builder) tree.NodeID {
		return b.Block(b.Return(b.Ref("featureFlag")))
	})
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 33), "unrelated return")
}

func TestWithin_CompatNamingNeedsBuildCompatReceiver(t *testing.T) {
	tests := []struct {
		name    string
		guarded bool
	}{
		{"isAtLeastO", true},
		{"BuildCompat.isAtLeastO", true},
		{"androidx.core.os.BuildCompat.isAtLeastO", true},
		{"prefs.isAtLeastO", false},
		{"Compat.isAtLeastO", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			use := f.b.Call(tc.name)
			call, stmt := f.point()
			tr := f.build(f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode)))
			assert.Equal(t, tc.guarded, New(nil).IsWithinVersionGuardConditional(tr, call, 26))
		})
	}

	// A call on an arbitrary expression is never a BuildCompat call.
	f := newFixture()
	use := f.b.Add(tree.Node{Kind: tree.KindCall, Name: "isAtLeastO", Recv: f.b.Call("settings")})
	call, stmt := f.point()
	tr := f.build(f.method(f.b.If(use, f.b.Block(stmt), tree.NoNode)))
	assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 26))
}

func TestWithin_ShadowedNames(t *testing.T) {
	t.Run("shadowed flag", func(t *testing.T) {
		f := newFixture()
		ref := f.b.Ref("IS_O")
		f.b.Node(ref).Shadowed = true
		call, stmt := f.point()
		tr := f.build(f.method(f.b.If(ref, f.b.Block(stmt), tree.NoNode)))
		assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 26))
	})
	t.Run("shadowed version code", func(t *testing.T) {
		f := newFixture()
		ref := f.b.Ref("P")
		f.b.Node(ref).Shadowed = true
		cond := f.b.Bin(tree.OpGE, f.sdkInt(), ref)
		call, stmt := f.point()
		tr := f.build(f.method(f.b.If(cond, f.b.Block(stmt), tree.NoNode)))

		a := New(nil)
		_, ok := a.Comparison(tr, cond)
		assert.False(t, ok)
		assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 28))
	})
	t.Run("shadowed sdk int", func(t *testing.T) {
		f := newFixture()
		ref := f.b.Ref("SDK_INT")
		f.b.Node(ref).Shadowed = true
		cond := f.b.Bin(tree.OpGE, ref, f.b.Lit(28))
		tr := f.build(f.method(f.b.Stmt(cond)))
		_, ok := New(nil).Comparison(tr, cond)
		assert.False(t, ok)
	})
}

func TestWithin_ForeignQualifierIsNotAVersionCode(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	cond := f.b.Bin(tree.OpGE, f.sdkInt(), f.b.Ref("Limits.S"))
	tr := f.build(f.method(f.b.If(cond, f.b.Block(stmt), tree.NoNode)))

	a := New(nil)
	_, ok := a.Comparison(tr, cond)
	assert.False(t, ok)
	assert.False(t, a.IsWithinVersionGuardConditional(tr, call, 31))
}

func TestWithin_RecursiveDeclarationsTerminate(t *testing.T) {
	f := newFixture()

	helper := f.b.Method("loop", 0, tree.NoNode)
	self := f.b.Call("loop")
	f.b.Resolve(self, helper)
	body := f.b.Block(f.b.Return(self))
	f.b.Node(helper).Kids = []tree.NodeID{body}
	f.b.Node(body).Parent = helper

	fa := f.b.Field("A", true, true, tree.NoNode)
	fb := f.b.Field("B", true, true, tree.NoNode)
	refB := f.b.Ref("B")
	refA := f.b.Ref("A")
	f.b.Resolve(refB, fb)
	f.b.Resolve(refA, fa)
	f.b.Node(fa).Kids = []tree.NodeID{refB}
	f.b.Node(refB).Parent = fa
	f.b.Node(fb).Kids = []tree.NodeID{refA}
	f.b.Node(refA).Parent = fb

	use := f.b.Call("loop")
	f.b.Resolve(use, helper)
	useField := f.b.Ref("A")
	f.b.Resolve(useField, fa)

	c1, s1 := f.point()
	c2, s2 := f.point()
	tr := f.build(helper, fa, fb, f.method(
		f.b.If(use, f.b.Block(s1), tree.NoNode),
		f.b.If(useField, f.b.Block(s2), tree.NoNode),
	))

	a := New(nil)
	assert.False(t, a.IsWithinVersionGuardConditional(tr, c1, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, c2, 21))
}

func TestWithin_InvalidPoint(t *testing.T) {
	f := newFixture()
	tr := f.build(f.method())
	a := New(nil)

	assert.False(t, a.IsWithinVersionGuardConditional(tr, tree.NoNode, 21))
	assert.False(t, a.IsWithinVersionGuardConditional(tr, tree.NodeID(1000), 21))
	assert.False(t, a.IsPrecededByVersionGuardExit(tr, tree.NoNode, 21))
	assert.False(t, a.IsPrecededByVersionGuardExit(tr, tree.NodeID(1000), 21))
}

func TestWithin_IfWithoutCondition(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	ifs := f.b.Add(tree.Node{Kind: tree.KindIf, Kids: []tree.NodeID{f.b.Block(stmt)}})
	tr := f.build(f.method(ifs))

	assert.NotPanics(t, func() {
		assert.False(t, New(nil).IsWithinVersionGuardConditional(tr, call, 21))
	})
}

func TestPreceded_EarlyReturnBelowLevel(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	exit := f.b.If(f.cmp(tree.OpLT, 24), f.b.Block(f.b.Return(tree.NoNode)), tree.NoNode)
	tr := f.build(f.method(exit, stmt))

	a := New(nil)
	assert.True(t, a.IsPrecededByVersionGuardExit(tr, call, 24))
	assert.False(t, a.IsPrecededByVersionGuardExit(tr, call, 26))
}

func TestPreceded_EarlyReturnAtOrAboveLevelIsNotAGuard(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	exit := f.b.If(f.cmp(tree.OpGE, 24), f.b.Block(f.b.Return(tree.NoNode)), tree.NoNode)
	tr := f.build(f.method(exit, stmt))

	a := New(nil)
	assert.False(t, a.IsPrecededByVersionGuardExit(tr, call, 24))
	assert.False(t, a.IsPrecededByVersionGuardExit(tr, call, 26))
}

func TestPreceded_SwappedOperands(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	// if (24 > SDK_INT) return;  ==  if (SDK_INT < 24) return;
	exit := f.b.If(f.rcmp(tree.OpGT, 24), f.b.Return(tree.NoNode), tree.NoNode)
	tr := f.build(f.method(exit, stmt))

	a := New(nil)
	assert.True(t, a.IsPrecededByVersionGuardExit(tr, call, 24))
	assert.False(t, a.IsPrecededByVersionGuardExit(tr, call, 25))
}

func TestPreceded_ElseBranchExit(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	exit := f.b.If(f.cmp(tree.OpGE, 24),
		f.b.Block(f.b.Stmt(f.b.Call("log"))),
		f.b.Block(f.b.Throw(f.b.Expr())))
	tr := f.build(f.method(exit, stmt))

	assert.True(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 24))
}

func TestPreceded_ExitMustBeUnconditional(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	nested := f.b.If(f.b.Call("debug"), f.b.Return(tree.NoNode), tree.NoNode)
	exit := f.b.If(f.cmp(tree.OpLT, 24), f.b.Block(nested), tree.NoNode)
	tr := f.build(f.method(exit, stmt))

	assert.False(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 24))
}

func TestPreceded_ExitThroughNestedIfElse(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	nested := f.b.If(f.b.Call("debug"), f.b.Return(tree.NoNode), f.b.Throw(f.b.Expr()))
	exit := f.b.If(f.cmp(tree.OpLT, 24), f.b.Block(f.b.Stmt(f.b.Call("log")), nested), tree.NoNode)
	tr := f.build(f.method(exit, stmt))

	assert.True(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 24))
}

func TestPreceded_FirstStatementHasNoGuard(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	tr := f.build(f.method(stmt, f.b.If(f.cmp(tree.OpLT, 21), f.b.Return(tree.NoNode), tree.NoNode)))

	assert.False(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 21))
}

func TestPreceded_ClimbsEnclosingBlocks(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	exit := f.b.If(f.cmp(tree.OpLT, 21), f.b.Return(tree.NoNode), tree.NoNode)
	loop := f.b.Other(f.b.Call("hasNext"), f.b.Block(f.b.Stmt(f.b.Call("next")), stmt))
	tr := f.build(f.method(exit, f.b.Stmt(f.b.Call("log")), loop))

	assert.True(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 21))
}

func TestPreceded_SkipsTheEnclosingIf(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	// if (SDK_INT < 21) { point; return; }  -- the exit runs after the point.
	enclosing := f.b.If(f.cmp(tree.OpLT, 21), f.b.Block(stmt, f.b.Return(tree.NoNode)), tree.NoNode)
	tr := f.build(f.method(enclosing))

	assert.False(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 21))
}

func TestPreceded_StopsAtMethodBoundary(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	inner := f.b.Method("run", 0, f.b.Block(stmt))
	anon := f.b.Class("", inner)
	exit := f.b.If(f.cmp(tree.OpLT, 21), f.b.Return(tree.NoNode), tree.NoNode)
	tr := f.build(f.method(exit, f.b.Stmt(f.b.Expr(anon))))

	assert.False(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 21))
}

func TestPreceded_EntersLambdas(t *testing.T) {
	f := newFixture()
	call, stmt := f.point()
	exit := f.b.If(f.cmp(tree.OpLT, 21), f.b.Return(tree.NoNode), tree.NoNode)
	post := f.b.Stmt(f.b.Call("post", f.b.Lambda(f.b.Block(stmt))))
	tr := f.build(f.method(exit, post))

	assert.True(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 21))
}

func TestPreceded_ExpressionInsideIfCondition(t *testing.T) {
	f := newFixture()
	call := f.b.Call("check")
	exit := f.b.If(f.cmp(tree.OpLT, 21), f.b.Return(tree.NoNode), tree.NoNode)
	later := f.b.If(call, f.b.Block(), tree.NoNode)
	tr := f.build(f.method(exit, later))

	assert.True(t, New(nil).IsPrecededByVersionGuardExit(tr, call, 21))
}

func TestIsGuarded(t *testing.T) {
	f := newFixture()
	c1, s1 := f.point()
	c2, s2 := f.point()
	within := f.b.If(f.cmp(tree.OpGE, 21), f.b.Block(s1), tree.NoNode)
	exit := f.b.If(f.cmp(tree.OpLT, 21), f.b.Return(tree.NoNode), tree.NoNode)
	tr := f.build(f.method(within), f.method(exit, s2))

	a := New(nil)
	assert.True(t, a.IsGuarded(tr, c1, 21))
	assert.True(t, a.IsGuarded(tr, c2, 21))
	assert.False(t, a.IsGuarded(tr, c2, 22))
}

func TestEvaluate_OperatorsInBothOrders(t *testing.T) {
	type eval struct {
		branch Branch
		api    int
		want   Result
	}
	tests := []struct {
		name    string
		op      tree.Op
		level   int64
		swapped bool
		evals   []eval
	}{
		{"SDK_INT >= 21", tree.OpGE, 21, false, []eval{
			{TrueBranch, 21, Guarded}, {TrueBranch, 22, NotGuarded}, {FalseBranch, 2, NotGuarded}}},
		{"21 <= SDK_INT", tree.OpLE, 21, true, []eval{
			{TrueBranch, 21, Guarded}, {TrueBranch, 22, NotGuarded}, {FalseBranch, 2, NotGuarded}}},
		{"SDK_INT > 20", tree.OpGT, 20, false, []eval{
			{TrueBranch, 21, Guarded}, {TrueBranch, 22, NotGuarded}, {FalseBranch, 1, NotGuarded}}},
		{"20 < SDK_INT", tree.OpLT, 20, true, []eval{
			{TrueBranch, 21, Guarded}, {TrueBranch, 22, NotGuarded}, {FalseBranch, 1, NotGuarded}}},
		{"SDK_INT <= 20", tree.OpLE, 20, false, []eval{
			{FalseBranch, 21, Guarded}, {FalseBranch, 22, NotGuarded}, {TrueBranch, 1, NotGuarded}}},
		{"20 >= SDK_INT", tree.OpGE, 20, true, []eval{
			{FalseBranch, 21, Guarded}, {FalseBranch, 22, NotGuarded}, {TrueBranch, 1, NotGuarded}}},
		{"SDK_INT < 21", tree.OpLT, 21, false, []eval{
			{FalseBranch, 21, Guarded}, {FalseBranch, 22, NotGuarded}, {TrueBranch, 1, NotGuarded}}},
		{"21 > SDK_INT", tree.OpGT, 21, true, []eval{
			{FalseBranch, 21, Guarded}, {FalseBranch, 22, NotGuarded}, {TrueBranch, 1, NotGuarded}}},
		{"SDK_INT == 21", tree.OpEQ, 21, false, []eval{
			{TrueBranch, 21, Guarded}, {TrueBranch, 22, NotGuarded}, {FalseBranch, 1, NotGuarded}}},
		{"21 == SDK_INT", tree.OpEQ, 21, true, []eval{
			{TrueBranch, 21, Guarded}, {TrueBranch, 22, NotGuarded}, {FalseBranch, 1, NotGuarded}}},
		{"SDK_INT != 21", tree.OpNE, 21, false, []eval{
			{FalseBranch, 21, Guarded}, {FalseBranch, 22, NotGuarded}, {TrueBranch, 1, NotGuarded}}},
		{"21 != SDK_INT", tree.OpNE, 21, true, []eval{
			{FalseBranch, 21, Guarded}, {FalseBranch, 22, NotGuarded}, {TrueBranch, 1, NotGuarded}}},
	}

	a := New(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			var cond tree.NodeID
			if tc.swapped {
				cond = f.rcmp(tc.op, tc.level)
			} else {
				cond = f.cmp(tc.op, tc.level)
			}
			tr := f.build(f.method(f.b.Stmt(cond)))

			for _, e := range tc.evals {
				assert.Equal(t, e.want, a.Evaluate(tr, cond, e.branch, e.api),
					"branch=%s api=%d", e.branch, e.api)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	f := newFixture()
	helper := f.b.Method("isL", 0, f.b.Block(f.b.Return(f.cmp(tree.OpGE, 21))))
	use := f.b.Call("isL")
	f.b.Resolve(use, helper)
	cond := f.b.Bin(tree.OpAnd, f.b.Call("enabled"), f.b.Not(f.b.Not(use)))
	tr := f.build(helper, f.method(f.b.Stmt(cond)))

	a := New(nil)
	first := a.Evaluate(tr, cond, TrueBranch, 21)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, a.Evaluate(tr, cond, TrueBranch, 21))
	}
	assert.Equal(t, Guarded, first)
}

func TestEvaluate_UnrecognizedShapes(t *testing.T) {
	f := newFixture()
	bothSdk := f.b.Bin(tree.OpGE, f.sdkInt(), f.sdkInt())
	noSdk := f.b.Bin(tree.OpGE, f.b.Ref("count"), f.b.Lit(21))
	strLit := f.b.Bin(tree.OpGE, f.sdkInt(), f.b.Add(tree.Node{Kind: tree.KindLiteral}))
	andFalse := f.b.Bin(tree.OpAnd, f.cmp(tree.OpGE, 21), f.b.Call("x"))
	orTrue := f.b.Bin(tree.OpOr, f.cmp(tree.OpGE, 21), f.cmp(tree.OpGE, 22))
	unresolved := f.b.Call("whatever")
	tr := f.build(f.method(f.b.Stmt(f.b.Expr(bothSdk, noSdk, strLit, andFalse, orTrue, unresolved))))

	a := New(nil)
	assert.Equal(t, Unknown, a.Evaluate(tr, bothSdk, TrueBranch, 1))
	assert.Equal(t, Unknown, a.Evaluate(tr, noSdk, TrueBranch, 1))
	assert.Equal(t, Unknown, a.Evaluate(tr, strLit, TrueBranch, 1))
	assert.Equal(t, Unknown, a.Evaluate(tr, andFalse, FalseBranch, 21))
	assert.Equal(t, Unknown, a.Evaluate(tr, orTrue, TrueBranch, 21))
	assert.Equal(t, Unknown, a.Evaluate(tr, unresolved, TrueBranch, 21))
	assert.Equal(t, Guarded, a.Evaluate(tr, andFalse, TrueBranch, 21))
}

func TestComparison_Constants(t *testing.T) {
	f := newFixture()
	constant := f.b.Field("MIN_API", true, true, f.b.Lit(21))
	mutable := f.b.Field("minApi", true, false, f.b.Lit(21))
	aliased := f.b.Field("TARGET", true, true, f.b.Ref("Build.VERSION_CODES.O"))

	refConst := f.b.Ref("MIN_API")
	refMutable := f.b.Ref("minApi")
	refAlias := f.b.Ref("TARGET")
	f.b.Resolve(refConst, constant)
	f.b.Resolve(refMutable, mutable)
	f.b.Resolve(refAlias, aliased)

	c1 := f.b.Bin(tree.OpGE, f.sdkInt(), refConst)
	c2 := f.b.Bin(tree.OpGE, f.sdkInt(), refMutable)
	c3 := f.b.Bin(tree.OpLT, refAlias, f.b.Paren(f.sdkInt()))
	tr := f.build(constant, mutable, aliased, f.method(f.b.Stmt(f.b.Expr(c1, c2, c3))))

	a := New(nil)
	check, ok := a.Comparison(tr, c1)
	require.True(t, ok)
	assert.Equal(t, VersionCheck{Op: tree.OpGE, Level: 21}, check)

	_, ok = a.Comparison(tr, c2)
	assert.False(t, ok)

	check, ok = a.Comparison(tr, c3)
	require.True(t, ok)
	assert.Equal(t, VersionCheck{Op: tree.OpGT, Level: 26}, check)
}

func TestImpliedLevel(t *testing.T) {
	f := newFixture()
	ge := f.cmp(tree.OpGE, 26)
	lt := f.cmp(tree.OpLT, 21)
	chain := f.b.Bin(tree.OpAnd, f.b.Call("enabled"), f.cmp(tree.OpGT, 27))
	other := f.b.Call("enabled")
	huge := f.cmp(tree.OpGE, 2000000)
	hugeChain := f.b.Bin(tree.OpAnd, f.b.Call("enabled"), f.cmp(tree.OpGE, 2000000))
	tr := f.build(f.method(f.b.Stmt(f.b.Expr(ge, lt, chain, other, huge, hugeChain))))

	a := New(nil)
	tests := []struct {
		name   string
		cond   tree.NodeID
		branch Branch
		want   int
		ok     bool
	}{
		{"ge then", ge, TrueBranch, 26, true},
		{"ge else", ge, FalseBranch, 0, false},
		{"lt else", lt, FalseBranch, 21, true},
		{"chain", chain, TrueBranch, 28, true},
		{"unrelated", other, TrueBranch, 0, false},
		{"beyond search", huge, TrueBranch, 2000000, true},
		{"chain beyond search", hugeChain, TrueBranch, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			level, ok := a.ImpliedLevel(tr, tc.cond, tc.branch)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, level)
		})
	}
}

func TestVersionCheck_Decided(t *testing.T) {
	tests := []struct {
		check   VersionCheck
		min     int
		outcome bool
		ok      bool
	}{
		{VersionCheck{tree.OpGE, 14}, 21, true, true},
		{VersionCheck{tree.OpGE, 21}, 21, true, true},
		{VersionCheck{tree.OpGE, 22}, 21, false, false},
		{VersionCheck{tree.OpGT, 20}, 21, true, true},
		{VersionCheck{tree.OpGT, 21}, 21, false, false},
		{VersionCheck{tree.OpLT, 21}, 21, false, true},
		{VersionCheck{tree.OpLT, 22}, 21, false, false},
		{VersionCheck{tree.OpLE, 20}, 21, false, true},
		{VersionCheck{tree.OpLE, 21}, 21, false, false},
		{VersionCheck{tree.OpEQ, 19}, 21, false, true},
		{VersionCheck{tree.OpEQ, 21}, 21, false, false},
		{VersionCheck{tree.OpNE, 19}, 21, true, true},
	}
	for _, tc := range tests {
		outcome, ok := tc.check.Decided(tc.min)
		assert.Equal(t, tc.ok, ok, "%v min=%d", tc.check, tc.min)
		if tc.ok {
			assert.Equal(t, tc.outcome, outcome, "%v min=%d", tc.check, tc.min)
		}
	}
}
