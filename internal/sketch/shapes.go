package sketch

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// constructorName is the DSL call that declares a collection reference.
const constructorName = "collection"

// setupFuncName is the sketch entry point scanned for token usages.
const setupFuncName = "setup"

// callShape is the closed set of DSL call forms the analyzer recognizes.
// Anything else classifies as shapeNone and is ignored.
type callShape int

const (
	shapeNone        callShape = iota
	shapeConstructor           // collection("0x...")
	shapeTraitRead             // X.metadata("Key").asInt()
	shapeUseToken              // X.useToken(3)
)

// callInfo carries the classified shape plus the nodes each pass needs.
type callInfo struct {
	shape      callShape
	collection string       // identifier the call is rooted at
	trait      TraitType    // shapeTraitRead only
	keyNode    *sitter.Node // metadata key argument, nil when absent
	argNode    *sitter.Node // constructor address / useToken argument, nil when absent
}

// classifyCall maps a call_expression node onto the closed shape set.
func classifyCall(n *sitter.Node, src []byte) callInfo {
	if n == nil || n.Type() != "call_expression" {
		return callInfo{}
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return callInfo{}
	}

	switch fn.Type() {
	case "identifier":
		if fn.Content(src) != constructorName {
			return callInfo{}
		}
		return callInfo{shape: shapeConstructor, argNode: firstArgument(n)}

	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return callInfo{}
		}
		method := prop.Content(src)
		switch {
		case TraitType(method).Valid():
			collection, keyNode, ok := matchMetadataCall(obj, src)
			if !ok {
				return callInfo{}
			}
			return callInfo{
				shape:      shapeTraitRead,
				collection: collection,
				trait:      TraitType(method),
				keyNode:    keyNode,
			}
		case method == "useToken":
			if obj.Type() != "identifier" {
				return callInfo{}
			}
			return callInfo{
				shape:      shapeUseToken,
				collection: obj.Content(src),
				argNode:    firstArgument(n),
			}
		}
	}
	return callInfo{}
}

// matchMetadataCall matches `<identifier>.metadata(<arg?>)` and returns the
// identifier name plus the key argument node.
func matchMetadataCall(n *sitter.Node, src []byte) (string, *sitter.Node, bool) {
	if n.Type() != "call_expression" {
		return "", nil, false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return "", nil, false
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return "", nil, false
	}
	if obj.Type() != "identifier" || prop.Content(src) != "metadata" {
		return "", nil, false
	}
	return obj.Content(src), firstArgument(n), true
}

// firstArgument returns the first named child of a call's argument list.
func firstArgument(call *sitter.Node) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

// literalString extracts the text of a string literal node, stripping the
// surrounding quotes.
func literalString(n *sitter.Node, src []byte) (string, bool) {
	if n == nil || n.Type() != "string" {
		return "", false
	}
	text := n.Content(src)
	if len(text) >= 2 {
		if q := text[0]; (q == '"' || q == '\'' || q == '`') && text[len(text)-1] == q {
			return text[1 : len(text)-1], true
		}
	}
	return text, true
}

// literalInt extracts a non-negative base-10 integer literal. Floats,
// hex, and anything computed fail the match.
func literalInt(n *sitter.Node, src []byte) (int64, bool) {
	if n == nil || n.Type() != "number" {
		return 0, false
	}
	text := n.Content(src)
	if strings.ContainsAny(text, ".eExXbBoO") {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
