package dependencygraph

import "testing"

func TestCullLinearChain(t *testing.T) {
	g := New()
	a := g.NewNode()
	b := g.NewNode()
	c := g.NewNode()

	// c depends on b, b depends on a; an edge runs from producer to
	// consumer: a -> b -> c
	g.Link(a, b)
	g.Link(b, c)
	g.MakeTarget(c)

	g.Cull()

	if g.IsCulled(a) || g.IsCulled(b) || g.IsCulled(c) {
		t.Fatalf("chain reachable from a target must not be culled: a=%v b=%v c=%v",
			g.IsCulled(a), g.IsCulled(b), g.IsCulled(c))
	}
}

func TestCullUnreachableBranch(t *testing.T) {
	g := New()
	a := g.NewNode()
	b := g.NewNode()
	dead := g.NewNode()

	g.Link(a, b)
	g.MakeTarget(b)
	// dead has no dependents (no outgoing edges) and is not a target.
	_ = dead

	g.Cull()

	if g.IsCulled(a) || g.IsCulled(b) {
		t.Fatalf("target chain should survive")
	}
	if !g.IsCulled(dead) {
		t.Fatalf("unreferenced non-target node should be culled")
	}
}

func TestCullIsIdempotent(t *testing.T) {
	g := New()
	a := g.NewNode()
	b := g.NewNode()
	g.Link(b, a)
	g.MakeTarget(b)

	g.Cull()
	beforeA, beforeB := g.RefCount(a), g.RefCount(b)
	g.Cull()
	if g.RefCount(a) != beforeA || g.RefCount(b) != beforeB {
		t.Fatalf("second Cull changed refcounts: a %d->%d b %d->%d",
			beforeA, g.RefCount(a), beforeB, g.RefCount(b))
	}
}

func TestCullIsIdempotentWithSurvivingRefcountAboveOne(t *testing.T) {
	g := New()
	p := g.NewNode()
	target := g.NewNode()
	deadLeaf := g.NewNode()

	// p has two outgoing edges: one to a permanently-alive target, one
	// to a dead leaf. p's refcount should settle at 1 (one of its two
	// out-edges gets canceled by the dead leaf's cull, the other never
	// cancels because the target is never culled) and stay there no
	// matter how many times Cull runs.
	g.Link(p, target)
	g.Link(p, deadLeaf)
	g.MakeTarget(target)

	g.Cull()
	first := g.RefCount(p)
	g.Cull()
	second := g.RefCount(p)
	g.Cull()
	third := g.RefCount(p)

	if first != second || second != third {
		t.Fatalf("p's refcount drifted across repeated Cull calls: %d, %d, %d", first, second, third)
	}
	if g.IsCulled(p) {
		t.Fatalf("p depends on a live target and must not be culled")
	}
}

func TestTargetAlwaysReportsRefCountOne(t *testing.T) {
	g := New()
	n := g.NewNode()
	g.MakeTarget(n)
	if got := g.RefCount(n); got != 1 {
		t.Fatalf("target refcount = %d, want 1", got)
	}
	if g.IsCulled(n) {
		t.Fatalf("target must never be culled")
	}
}

func TestEdgeValidAfterCull(t *testing.T) {
	g := New()
	a := g.NewNode()
	b := g.NewNode()
	dead := g.NewNode()
	g.Link(a, b)
	g.MakeTarget(b)
	g.Link(a, dead) // dead's incoming edge, but dead itself is unreferenced

	g.Cull()

	for _, e := range g.Incoming(b) {
		if !g.EdgeValid(e) {
			t.Fatalf("edge into a live target must be valid: %+v", e)
		}
	}
	for _, e := range g.Incoming(dead) {
		if g.EdgeValid(e) {
			t.Fatalf("edge into a culled node must be invalid: %+v", e)
		}
	}
}

func TestIsAcyclicDetectsCycle(t *testing.T) {
	g := New()
	a := g.NewNode()
	b := g.NewNode()
	g.Link(a, b)
	g.Link(b, a)

	if g.IsAcyclic() {
		t.Fatalf("expected cycle to be detected")
	}
}

func TestIsAcyclicAcceptsDAG(t *testing.T) {
	g := New()
	a := g.NewNode()
	b := g.NewNode()
	c := g.NewNode()
	g.Link(c, b)
	g.Link(b, a)

	if !g.IsAcyclic() {
		t.Fatalf("expected DAG to be accepted")
	}
}

func TestMakeTargetIsIdempotent(t *testing.T) {
	g := New()
	n := g.NewNode()
	g.MakeTarget(n)
	g.MakeTarget(n) // calling it twice must not panic
	if got := g.RefCount(n); got != 1 {
		t.Fatalf("target refcount = %d, want 1", got)
	}
}
