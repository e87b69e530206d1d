package tree

import (
	"testing"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

func mustBuild(t *testing.T, b *Builder) *Tree {
	t.Helper()
	tr, err := b.Build()
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	return tr
}

func atomID(t *testing.T, tr *Tree, text string) ir.AtomId {
	t.Helper()
	for i, a := range tr.Atoms() {
		if a == text {
			return ir.AtomId(i)
		}
	}
	t.Fatalf("atom %q not in table %v", text, tr.Atoms())
	return 0
}

func TestBuilderSharedAtomSingleEntry(t *testing.T) {
	b := NewBuilder()
	// two regexps both requiring "foo" as an And operand
	if err := b.Add(0, ir.NewAnd(ir.NewAtom("foo"), ir.NewAtom("aaa"))); err != nil {
		t.Fatalf("add r0: %v", err)
	}
	if err := b.Add(1, ir.NewAnd(ir.NewAtom("foo"), ir.NewAtom("bbb"))); err != nil {
		t.Fatalf("add r1: %v", err)
	}
	tr := mustBuild(t, b)

	if tr.AtomCount() != 3 {
		t.Fatalf("atom count = %d, want 3 (foo deduped)", tr.AtomCount())
	}
	// foo, aaa, bbb, and two And entries
	if tr.NodeCount() != 5 {
		t.Fatalf("node count = %d, want 5", tr.NodeCount())
	}

	foo, _ := tr.GetEntry(tr.atomEntry[atomID(t, tr, "foo")])
	if len(foo.Parents) != 2 {
		t.Fatalf("shared atom should have 2 parents, got %d", len(foo.Parents))
	}
}

func TestBuilderDuplicateAndOperandCollapses(t *testing.T) {
	b := NewBuilder()
	// And(x, x): one distinct child, threshold must be 1
	if err := b.Add(0, ir.NewAnd(ir.NewAtom("xxx"), ir.NewAtom("xxx"))); err != nil {
		t.Fatalf("add: %v", err)
	}
	tr := mustBuild(t, b)

	if tr.NodeCount() != 2 {
		t.Fatalf("node count = %d, want 2", tr.NodeCount())
	}
	and, _ := tr.GetEntry(1)
	if and.PropagateUpAtCount != 1 {
		t.Fatalf("threshold = %d, want 1 (distinct children only)", and.PropagateUpAtCount)
	}
	atom, _ := tr.GetEntry(0)
	if len(atom.Parents) != 1 {
		t.Fatalf("atom parents = %d, want 1 (no double link)", len(atom.Parents))
	}
}

func TestBuilderStructuralDedup(t *testing.T) {
	b := NewBuilder()
	// identical And subtrees with operands in different order must share one entry
	if err := b.Add(0, ir.NewAnd(ir.NewAtom("cat"), ir.NewAtom("dog"))); err != nil {
		t.Fatalf("add r0: %v", err)
	}
	if err := b.Add(1, ir.NewAnd(ir.NewAtom("dog"), ir.NewAtom("cat"))); err != nil {
		t.Fatalf("add r1: %v", err)
	}
	tr := mustBuild(t, b)

	// cat, dog, one shared And
	if tr.NodeCount() != 3 {
		t.Fatalf("node count = %d, want 3", tr.NodeCount())
	}
	and, _ := tr.GetEntry(2)
	if len(and.Regexps) != 2 {
		t.Fatalf("shared entry should own both regexps, got %v", and.Regexps)
	}
}

func TestBuilderConstantFolding(t *testing.T) {
	b := NewBuilder()
	// And(x, All) == x; Or(y, All) == All; Or(z, None) == z; And(w, None) == None
	if err := b.Add(0, ir.NewAnd(ir.NewAtom("xxx"), ir.NewAll())); err != nil {
		t.Fatalf("add r0: %v", err)
	}
	if err := b.Add(1, ir.NewOr(ir.NewAtom("yyy"), ir.NewAll())); err != nil {
		t.Fatalf("add r1: %v", err)
	}
	if err := b.Add(2, ir.NewOr(ir.NewAtom("zzz"), ir.NewNone())); err != nil {
		t.Fatalf("add r2: %v", err)
	}
	if err := b.Add(3, ir.NewAnd(ir.NewAtom("www"), ir.NewNone())); err != nil {
		t.Fatalf("add r3: %v", err)
	}
	tr := mustBuild(t, b)

	uncond := tr.Unconditional()
	if len(uncond) != 1 || uncond[0] != 1 {
		t.Fatalf("unconditional = %v, want [1]", uncond)
	}

	got := tr.PropagateMatch([]ir.AtomId{atomID(t, tr, "xxx")})
	if !containsRegexp(got, 0) {
		t.Fatalf("And(x, All) should behave as x: got %v", got)
	}
	got = tr.PropagateMatch([]ir.AtomId{atomID(t, tr, "www")})
	if containsRegexp(got, 3) {
		t.Fatalf("And(w, None) must never fire: got %v", got)
	}
}

func TestBuilderRejectsInvalidInput(t *testing.T) {
	if err := NewBuilder().Add(0, nil); err == nil {
		t.Fatalf("nil node should be a build error")
	}
	if err := NewBuilder().Add(0, ir.NewAnd()); err == nil {
		t.Fatalf("And with zero children should be a build error")
	}
	if err := NewBuilder().Add(0, ir.NewOr()); err == nil {
		t.Fatalf("Or with zero children should be a build error")
	}
	if err := NewBuilder().Add(0, ir.NewAtom("")); err == nil {
		t.Fatalf("empty atom should be a build error")
	}
}

func TestBuilderBuildTwice(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(0, ir.NewAtom("abc")); err != nil {
		t.Fatalf("add: %v", err)
	}
	mustBuild(t, b)
	if _, err := b.Build(); err == nil {
		t.Fatalf("second Build should fail")
	}
	if err := b.Add(1, ir.NewAtom("def")); err == nil {
		t.Fatalf("Add after Build should fail")
	}
}

func TestTreeStatistics(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(0, ir.NewAnd(ir.NewAtom("cat"), ir.NewAtom("dog"))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.Add(1, ir.NewAll()); err != nil {
		t.Fatalf("add: %v", err)
	}
	tr := mustBuild(t, b)

	st := tr.Statistics()
	if st.TotalEntries != 3 || st.AtomEntries != 2 || st.InnerEntries != 1 {
		t.Fatalf("unexpected entry counts: %+v", st)
	}
	if st.Edges != 2 {
		t.Fatalf("edges = %d, want 2", st.Edges)
	}
	if st.UnconditionalRegexps != 1 {
		t.Fatalf("unconditional = %d, want 1", st.UnconditionalRegexps)
	}
	if st.EstimatedMemoryBytes <= 0 {
		t.Fatalf("memory estimate should be positive")
	}
}
