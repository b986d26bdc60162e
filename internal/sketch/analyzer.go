package sketch

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"sketchmint/internal/logging"
)

// Analyze parses sketch source and extracts its collection, trait, and
// token-usage model. It never fails: a source that does not parse yields
// a single error-severity issue and an otherwise empty result.
func Analyze(source string) *Result {
	log := logging.Get(logging.CategoryAnalyzer)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	a := newAnalysis([]byte(source))

	tree, err := parser.ParseCtx(context.Background(), nil, a.src)
	if err != nil || tree == nil {
		a.errorf(nil, "source failed to parse")
		return a.result()
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		a.errorf(locationOf(root), "source failed to parse")
		return a.result()
	}

	a.collectCollections(root)
	a.collectTraits(root)
	a.collectTokenUsages(root)
	a.validate()

	res := a.result()
	log.Debugw("analysis complete",
		"collections", len(res.Collections),
		"traits", len(res.Traits),
		"tokenIndexes", len(res.TokenIndexes),
		"issues", len(res.Issues),
	)
	return res
}

// analysis is the builder for one Analyze call. All accumulators live
// here; the package keeps no state between calls.
type analysis struct {
	src []byte

	collections []Collection
	byName      map[string]int

	traits    []Trait
	traitSeen map[Trait]bool

	tokens    []TokenIndex
	tokenSeen map[string]map[int64]bool

	issues []Issue
}

func newAnalysis(src []byte) *analysis {
	return &analysis{
		src:       src,
		byName:    make(map[string]int),
		traitSeen: make(map[Trait]bool),
		tokenSeen: make(map[string]map[int64]bool),
	}
}

func (a *analysis) warnf(loc *Location, format string, args ...any) {
	a.issues = append(a.issues, Issue{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Loc:      loc,
	})
}

func (a *analysis) errorf(loc *Location, format string, args ...any) {
	a.issues = append(a.issues, Issue{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Loc:      loc,
	})
}

// collectCollections registers every variable initialization whose value
// is a constructor call. A non-literal or missing first argument leaves
// the collection unaddressed and records a warning; the collection is
// still usable.
func (a *analysis) collectCollections(root *sitter.Node) {
	walk(root, func(n *sitter.Node) {
		if n.Type() != "variable_declarator" {
			return
		}
		nameNode := n.ChildByFieldName("name")
		valueNode := n.ChildByFieldName("value")
		if nameNode == nil || nameNode.Type() != "identifier" {
			return
		}
		info := classifyCall(valueNode, a.src)
		if info.shape != shapeConstructor {
			return
		}

		name := nameNode.Content(a.src)
		if _, exists := a.byName[name]; exists {
			// Registered once per distinct declaration; first wins.
			return
		}

		loc := locationOf(n)
		addr := ""
		if s, ok := literalString(info.argNode, a.src); ok {
			addr = s
		}
		if addr == "" {
			a.warnf(loc, "collection %q is missing an address", name)
		}

		a.byName[name] = len(a.collections)
		a.collections = append(a.collections, Collection{Name: name, Address: addr, Loc: loc})
	})
}

// collectTraits registers every trait-read call anywhere in the source.
// Exact duplicates of (collection, key, type) are suppressed silently.
func (a *analysis) collectTraits(root *sitter.Node) {
	walk(root, func(n *sitter.Node) {
		info := classifyCall(n, a.src)
		if info.shape != shapeTraitRead {
			return
		}

		key := ""
		if s, ok := literalString(info.keyNode, a.src); ok {
			key = s
		} else {
			a.warnf(locationOf(n), "trait read on %q is missing a key literal", info.collection)
		}

		trait := Trait{Collection: info.collection, Key: key, Type: info.trait}
		if a.traitSeen[trait] {
			return
		}
		a.traitSeen[trait] = true
		a.traits = append(a.traits, trait)
	})
}

// collectTokenUsages scans the body of the setup() declaration for
// useToken calls with literal integer arguments. Non-literal arguments
// record a warning and produce no token index.
func (a *analysis) collectTokenUsages(root *sitter.Node) {
	body := a.findSetupBody(root)
	if body == nil {
		return
	}

	walk(body, func(n *sitter.Node) {
		info := classifyCall(n, a.src)
		if info.shape != shapeUseToken {
			return
		}

		loc := locationOf(n)
		id, ok := literalInt(info.argNode, a.src)
		if !ok {
			a.warnf(loc, "useToken argument for %q is not an integer literal", info.collection)
			return
		}

		seen := a.tokenSeen[info.collection]
		if seen == nil {
			seen = make(map[int64]bool)
			a.tokenSeen[info.collection] = seen
		}
		if seen[id] {
			return
		}
		seen[id] = true
		a.tokens = append(a.tokens, TokenIndex{Collection: info.collection, TokenID: id, Loc: loc})
	})
}

// findSetupBody returns the statement block of the first function
// declaration named setup, or nil when the sketch has none.
func (a *analysis) findSetupBody(root *sitter.Node) *sitter.Node {
	var body *sitter.Node
	walk(root, func(n *sitter.Node) {
		if body != nil || n.Type() != "function_declaration" {
			return
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil || nameNode.Content(a.src) != setupFuncName {
			return
		}
		body = n.ChildByFieldName("body")
	})
	return body
}

// validate warns about traits and token usages that reference a
// collection name never declared. Nothing is removed.
func (a *analysis) validate() {
	for _, t := range a.traits {
		if _, ok := a.byName[t.Collection]; !ok {
			a.warnf(nil, "trait references unknown collection %q", t.Collection)
		}
	}
	for _, tok := range a.tokens {
		if _, ok := a.byName[tok.Collection]; !ok {
			a.warnf(tok.Loc, "token usage references unknown collection %q", tok.Collection)
		}
	}
}

// result groups traits and token usages per collection name and freezes
// the builder into an immutable Result.
func (a *analysis) result() *Result {
	var order []string
	grouped := make(map[string]*TraitData)

	ensure := func(name string) *TraitData {
		if td, ok := grouped[name]; ok {
			return td
		}
		td := &TraitData{Collection: name}
		if idx, ok := a.byName[name]; ok {
			td.Address = a.collections[idx].Address
		}
		grouped[name] = td
		order = append(order, name)
		return td
	}

	for _, t := range a.traits {
		td := ensure(t.Collection)
		td.Traits = append(td.Traits, t)
	}
	for _, tok := range a.tokens {
		td := ensure(tok.Collection)
		td.TokenIndexes = append(td.TokenIndexes, tok.TokenID)
	}

	data := make([]TraitData, 0, len(order))
	for _, name := range order {
		data = append(data, *grouped[name])
	}

	return &Result{
		Collections:  a.collections,
		Traits:       a.traits,
		TokenIndexes: a.tokens,
		Data:         data,
		Issues:       a.issues,
	}
}

// walk visits n and every descendant in document order.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

func locationOf(n *sitter.Node) *Location {
	if n == nil {
		return nil
	}
	p := n.StartPoint()
	return &Location{Line: p.Row + 1, Column: p.Column}
}
