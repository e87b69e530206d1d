package compiler

import (
	"fmt"
	"regexp/syntax"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

// Compiler derives a boolean required-literal predicate from a regular
// expression. The predicate over-approximates: whenever the regexp matches
// some input, the predicate evaluates true under the atoms present in that
// input. Atoms fold ASCII letters only, matching the scanner's ASCII
// case-insensitive search; non-ASCII runes keep their exact bytes, and a
// fold-case literal whose case variants fall outside ASCII carries no
// usable atom. The full matcher stays authoritative, so folding never
// loses candidates.
type Compiler struct {
	cfg ir.EngineConfig
}

func New() *Compiler {
	return &Compiler{cfg: ir.DefaultEngineConfig()}
}

func NewWithConfig(cfg ir.EngineConfig) *Compiler {
	return &Compiler{cfg: cfg}
}

// CompilePattern parses expr and returns its predicate tree. Patterns
// without usable literals come back as the constant-true predicate.
func (c *Compiler) CompilePattern(expr string) (*ir.PredicateNode, error) {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("CompilationError: parse %q: %w", expr, err)
	}
	return c.toPredicate(c.analyze(re)), nil
}

// ---- literal analysis ----

// litInfo carries either the exact set of strings a subexpression can
// match (small sets only) or, once exactness is lost, the predicate that
// any match of the subexpression implies.
type litInfo struct {
	exact []string // nil when not exact
	match *ir.PredicateNode
}

func allInfo() litInfo  { return litInfo{match: ir.NewAll()} }
func noneInfo() litInfo { return litInfo{match: ir.NewNone()} }

func (c *Compiler) analyze(re *syntax.Regexp) litInfo {
	switch re.Op {
	case syntax.OpNoMatch:
		return noneInfo()
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return litInfo{exact: []string{""}}
	case syntax.OpLiteral:
		if re.Flags&syntax.FoldCase != 0 && !asciiOnlyFolding(re.Rune) {
			// the scanner cannot fold non-ASCII case variants
			return allInfo()
		}
		return litInfo{exact: []string{asciiLower(re.Rune)}}
	case syntax.OpCharClass:
		return c.analyzeClass(re)
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return allInfo()
	case syntax.OpCapture:
		return c.analyze(re.Sub[0])
	case syntax.OpConcat:
		return c.analyzeConcat(re.Sub)
	case syntax.OpAlternate:
		return c.analyzeAlternate(re.Sub)
	case syntax.OpStar, syntax.OpQuest:
		// matches the empty string; nothing is required
		return allInfo()
	case syntax.OpPlus:
		return litInfo{match: c.toPredicate(c.analyze(re.Sub[0]))}
	case syntax.OpRepeat:
		if re.Min == 0 {
			return allInfo()
		}
		return litInfo{match: c.toPredicate(c.analyze(re.Sub[0]))}
	default:
		return allInfo()
	}
}

// small character classes enumerate into an exact set; anything larger
// cannot be filtered on
func (c *Compiler) analyzeClass(re *syntax.Regexp) litInfo {
	const maxClassRunes = 4
	total := 0
	for i := 0; i+1 < len(re.Rune); i += 2 {
		total += int(re.Rune[i+1]-re.Rune[i]) + 1
		if total > maxClassRunes {
			return allInfo()
		}
	}
	if total == 0 {
		return noneInfo()
	}
	set := make([]string, 0, total)
	for i := 0; i+1 < len(re.Rune); i += 2 {
		for r := re.Rune[i]; r <= re.Rune[i+1]; r++ {
			set = append(set, asciiLower([]rune{r}))
		}
	}
	return litInfo{exact: dedupeStrings(set)}
}

func (c *Compiler) analyzeConcat(subs []*syntax.Regexp) litInfo {
	cur := litInfo{exact: []string{""}}
	for _, sub := range subs {
		cur = c.cross(cur, c.analyze(sub))
	}
	return cur
}

// cross combines sequential subexpressions: stays exact while the string
// set stays small, otherwise both sides are required together.
func (c *Compiler) cross(a, b litInfo) litInfo {
	if a.exact != nil && b.exact != nil && len(a.exact)*len(b.exact) <= c.cfg.MaxExactStrings {
		prod := make([]string, 0, len(a.exact)*len(b.exact))
		for _, x := range a.exact {
			for _, y := range b.exact {
				prod = append(prod, x+y)
			}
		}
		return litInfo{exact: dedupeStrings(prod)}
	}
	return litInfo{match: andPred(c.toPredicate(a), c.toPredicate(b))}
}

func (c *Compiler) analyzeAlternate(subs []*syntax.Regexp) litInfo {
	infos := make([]litInfo, len(subs))
	exactTotal := 0
	allExact := true
	for i, sub := range subs {
		infos[i] = c.analyze(sub)
		if infos[i].exact == nil {
			allExact = false
			continue
		}
		exactTotal += len(infos[i].exact)
	}
	if allExact && exactTotal <= c.cfg.MaxExactStrings {
		union := make([]string, 0, exactTotal)
		for _, i := range infos {
			union = append(union, i.exact...)
		}
		return litInfo{exact: dedupeStrings(union)}
	}

	pred := ir.NewNone()
	for _, i := range infos {
		pred = orPred(pred, c.toPredicate(i))
		if pred.Kind == ir.KindAll {
			return allInfo()
		}
	}
	return litInfo{match: pred}
}

// toPredicate lowers a litInfo to its predicate. An exact set containing a
// string shorter than MinAtomLength carries no usable literal, so the
// whole set degrades to constant true.
func (c *Compiler) toPredicate(i litInfo) *ir.PredicateNode {
	if i.exact == nil {
		if i.match == nil {
			return ir.NewAll()
		}
		return i.match
	}
	if len(i.exact) == 0 {
		return ir.NewNone()
	}
	atoms := make([]*ir.PredicateNode, 0, len(i.exact))
	for _, s := range i.exact {
		if len(s) < c.cfg.MinAtomLength {
			return ir.NewAll()
		}
		atoms = append(atoms, ir.NewAtom(s))
	}
	if len(atoms) == 1 {
		return atoms[0]
	}
	return ir.NewOr(atoms...)
}

// ---- predicate folding ----

func andPred(a, b *ir.PredicateNode) *ir.PredicateNode {
	if a.Kind == ir.KindNone || b.Kind == ir.KindNone {
		return ir.NewNone()
	}
	if a.Kind == ir.KindAll {
		return b
	}
	if b.Kind == ir.KindAll {
		return a
	}
	return flatten(ir.KindAnd, a, b)
}

func orPred(a, b *ir.PredicateNode) *ir.PredicateNode {
	if a.Kind == ir.KindAll || b.Kind == ir.KindAll {
		return ir.NewAll()
	}
	if a.Kind == ir.KindNone {
		return b
	}
	if b.Kind == ir.KindNone {
		return a
	}
	return flatten(ir.KindOr, a, b)
}

func flatten(kind ir.PredicateKind, a, b *ir.PredicateNode) *ir.PredicateNode {
	kids := make([]*ir.PredicateNode, 0, 2)
	for _, n := range []*ir.PredicateNode{a, b} {
		if n.Kind == kind {
			kids = append(kids, n.Children...)
		} else {
			kids = append(kids, n)
		}
	}
	return &ir.PredicateNode{Kind: kind, Children: kids}
}

// asciiLower folds A-Z only. Non-ASCII runes keep their exact bytes; the
// scanner matches them byte for byte.
func asciiLower(runes []rune) string {
	var sb strings.Builder
	for _, r := range runes {
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// asciiOnlyFolding reports whether every cased rune of a fold-case literal
// is ASCII. A cased non-ASCII rune means the matcher may accept a case
// variant the ASCII-folding scanner would never locate.
func asciiOnlyFolding(runes []rune) bool {
	for _, r := range runes {
		if r < utf8.RuneSelf {
			continue
		}
		if unicode.SimpleFold(r) != r {
			return false
		}
	}
	return true
}

func dedupeStrings(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || in[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}
