package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

// Builder canonicalizes per-regexp predicate trees into one shared DAG and
// assigns each distinct node a dense unique ID. Structurally equal subtrees
// (same kind, same atom text, same multiset of canonical children) collapse
// to a single Entry shared by every regexp that uses them.
type Builder struct {
	entries   []Entry
	canonical map[string]NodeId // structural signature -> unique id

	atoms     []string
	atomIndex map[string]ir.AtomId
	atomEntry []NodeId

	unconditional []ir.RegexpId
	regexpCount   int

	pruneFanout int
	built       bool
}

func NewBuilder() *Builder {
	return &Builder{
		canonical:   make(map[string]NodeId),
		atomIndex:   make(map[string]ir.AtomId),
		pruneFanout: 0,
	}
}

// WithPruneFanout enables the one-time parent-link pruning pass during
// Build for entries with more than n parents. 0 disables pruning.
func (b *Builder) WithPruneFanout(n int) *Builder {
	b.pruneFanout = n
	return b
}

// constant-folding outcome of canonicalization
type folded int

const (
	foldedNode folded = iota // a real entry was produced
	foldedAll                // subtree is constant true
	foldedNone               // subtree is constant false
)

// Add registers the predicate tree guarding one regexp. Each regexp ID must
// be added at most once, before Build. A returned error means the input
// violated a structural invariant; the builder must then be discarded,
// since partially linked entries would corrupt propagation counts for
// regexps sharing them.
func (b *Builder) Add(id ir.RegexpId, root *ir.PredicateNode) error {
	if b.built {
		return fmt.Errorf("BuildError: Add after Build")
	}
	nid, f, err := b.canonicalize(root)
	if err != nil {
		return err
	}
	b.regexpCount++
	switch f {
	case foldedAll:
		b.unconditional = append(b.unconditional, id)
	case foldedNone:
		// unmatchable pattern; never a candidate
	default:
		b.entries[nid].Regexps = append(b.entries[nid].Regexps, id)
	}
	return nil
}

// Build finalizes the DAG: runs the optional pruning pass, validates, and
// returns the immutable Tree. The builder cannot be reused afterwards.
func (b *Builder) Build() (*Tree, error) {
	if b.built {
		return nil, fmt.Errorf("BuildError: Build called twice")
	}
	b.built = true

	if b.pruneFanout > 0 {
		if err := b.pruneParentLinks(b.pruneFanout); err != nil {
			return nil, err
		}
	}

	t := &Tree{
		entries:       b.entries,
		atoms:         b.atoms,
		atomEntry:     b.atomEntry,
		unconditional: b.unconditional,
		regexpCount:   b.regexpCount,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	n := len(t.entries)
	t.statePool.New = func() any { return newTriggerState(n) }
	return t, nil
}

// ---- internal helpers ----

// canonicalize interns the subtree rooted at n and returns its unique id.
// Constant subtrees (All, None, and And/Or that fold to a constant once
// constant children are absorbed) produce no entry.
func (b *Builder) canonicalize(n *ir.PredicateNode) (NodeId, folded, error) {
	if n == nil {
		return 0, foldedNode, fmt.Errorf("BuildError: nil predicate node")
	}
	switch n.Kind {
	case ir.KindAll:
		return 0, foldedAll, nil
	case ir.KindNone:
		return 0, foldedNone, nil
	case ir.KindAtom:
		if n.Atom == "" {
			return 0, foldedNode, fmt.Errorf("BuildError: empty atom text")
		}
		return b.internAtom(n.Atom), foldedNode, nil
	case ir.KindAnd, ir.KindOr:
		return b.internOperator(n)
	default:
		return 0, foldedNode, fmt.Errorf("BuildError: unknown predicate kind %d", int(n.Kind))
	}
}

func (b *Builder) internAtom(text string) NodeId {
	sig := "a:" + text
	if nid, ok := b.canonical[sig]; ok {
		return nid
	}
	nid := b.createEntry(1)
	b.canonical[sig] = nid

	aid := ir.AtomId(len(b.atoms))
	b.atoms = append(b.atoms, text)
	b.atomIndex[text] = aid
	b.atomEntry = append(b.atomEntry, nid)
	return nid
}

func (b *Builder) internOperator(n *ir.PredicateNode) (NodeId, folded, error) {
	if len(n.Children) == 0 {
		return 0, foldedNode, fmt.Errorf("BuildError: %s node with zero children", n.Kind)
	}
	isAnd := n.Kind == ir.KindAnd

	// Canonicalize children, absorbing constants: All is the identity of
	// And and absorbing for Or; None mirrors that.
	childIDs := make([]NodeId, 0, len(n.Children))
	for _, c := range n.Children {
		cid, f, err := b.canonicalize(c)
		if err != nil {
			return 0, foldedNode, err
		}
		switch f {
		case foldedAll:
			if !isAnd {
				return 0, foldedAll, nil
			}
		case foldedNone:
			if isAnd {
				return 0, foldedNone, nil
			}
		default:
			childIDs = append(childIDs, cid)
		}
	}
	if len(childIDs) == 0 {
		if isAnd {
			return 0, foldedAll, nil
		}
		return 0, foldedNone, nil
	}

	// Signature over the sorted multiset of canonical child IDs; operand
	// order never distinguishes two And (or two Or) nodes.
	sort.Slice(childIDs, func(i, j int) bool { return childIDs[i] < childIDs[j] })
	sig := operatorSignature(isAnd, childIDs)
	if nid, ok := b.canonical[sig]; ok {
		return nid, foldedNode, nil
	}

	distinct := distinctIDs(childIDs)
	threshold := 1
	if isAnd {
		threshold = len(distinct)
	}
	nid := b.createEntry(threshold)
	b.canonical[sig] = nid

	// Parent links only from distinct children: a child appearing in
	// several operand slots still delivers exactly one trigger.
	for _, cid := range distinct {
		if _, ok := b.entries[cid].Parents[nid]; ok {
			continue
		}
		b.entries[cid].Parents[nid] = 1
	}
	return nid, foldedNode, nil
}

func (b *Builder) createEntry(threshold int) NodeId {
	nid := NodeId(len(b.entries))
	b.entries = append(b.entries, Entry{
		ID:                 nid,
		Parents:            make(map[NodeId]int),
		PropagateUpAtCount: threshold,
	})
	return nid
}

func operatorSignature(isAnd bool, sortedChildren []NodeId) string {
	var sb strings.Builder
	if isAnd {
		sb.WriteString("&(")
	} else {
		sb.WriteString("|(")
	}
	for i, id := range sortedChildren {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	sb.WriteByte(')')
	return sb.String()
}

func distinctIDs(sorted []NodeId) []NodeId {
	out := sorted[:0:0]
	for i, id := range sorted {
		if i == 0 || sorted[i-1] != id {
			out = append(out, id)
		}
	}
	return out
}
