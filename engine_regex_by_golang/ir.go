package engine_regex_by_golang

import (
	"fmt"
	"strings"
)

type RegexpId = uint32
type AtomId = uint32

// ---------- PredicateKind ----------

type PredicateKind int

const (
	KindAtom PredicateKind = iota
	KindAnd
	KindOr
	KindAll
	KindNone
)

func (k PredicateKind) String() string {
	switch k {
	case KindAtom:
		return "Atom"
	case KindAnd:
		return "And"
	case KindOr:
		return "Or"
	case KindAll:
		return "All"
	case KindNone:
		return "None"
	default:
		return fmt.Sprintf("PredicateKind(%d)", int(k))
	}
}

// ---------- PredicateNode ----------

// PredicateNode is a boolean expression over required literal substrings
// ("atoms") of a regular expression. A candidate input can only match the
// regexp when its predicate evaluates true under "these atoms occur in the
// input". All/None are the constant predicates (no extractable literals /
// unmatchable pattern).
type PredicateNode struct {
	Kind     PredicateKind
	Atom     string           // KindAtom only
	Children []*PredicateNode // KindAnd, KindOr only
}

func NewAtom(text string) *PredicateNode {
	return &PredicateNode{Kind: KindAtom, Atom: text}
}

func NewAnd(children ...*PredicateNode) *PredicateNode {
	return &PredicateNode{Kind: KindAnd, Children: children}
}

func NewOr(children ...*PredicateNode) *PredicateNode {
	return &PredicateNode{Kind: KindOr, Children: children}
}

func NewAll() *PredicateNode  { return &PredicateNode{Kind: KindAll} }
func NewNone() *PredicateNode { return &PredicateNode{Kind: KindNone} }

func (n *PredicateNode) Clone() *PredicateNode {
	if n == nil {
		return nil
	}
	cp := &PredicateNode{Kind: n.Kind, Atom: n.Atom}
	if len(n.Children) > 0 {
		cp.Children = make([]*PredicateNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return cp
}

// String renders the predicate in a compact debug form:
// atoms verbatim, And as (a & b), Or as (a | b), All as "*", None as "!".
func (n *PredicateNode) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindAtom:
		return fmt.Sprintf("%q", n.Atom)
	case KindAll:
		return "*"
	case KindNone:
		return "!"
	case KindAnd, KindOr:
		sep := " & "
		if n.Kind == KindOr {
			sep = " | "
		}
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			parts = append(parts, c.String())
		}
		return "(" + strings.Join(parts, sep) + ")"
	default:
		return fmt.Sprintf("PredicateNode(kind=%d)", int(n.Kind))
	}
}
