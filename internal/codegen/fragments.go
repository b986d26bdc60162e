// Package codegen maps the analyzed (and optionally metadata-enriched)
// sketch model onto contract source fragments and assembles them into a
// base template. Every function here is pure; assembly is the only
// operation that can fail, and only on template/generator mismatch.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"sketchmint/internal/sketch"
)

// TraitValue is one resolved trait ready for embedding. Literal is the
// already-formatted source literal (build it with IntLiteral,
// FloatLiteral, or StringLiteral).
type TraitValue struct {
	Key     string
	Type    sketch.TraitType
	Literal string
}

// IntLiteral formats an integer trait value.
func IntLiteral(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FloatLiteral formats a float trait value. The decimal point is always
// present so the target reader can tell floats from ints.
func FloatLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// StringLiteral formats a string trait value as a quoted, escaped literal.
func StringLiteral(s string) string {
	return `"` + Escape(s) + `"`
}

// addressed filters to collections carrying an address, preserving
// relative order. Address-dependent fragments only see these.
func addressed(data []sketch.TraitData) []sketch.TraitData {
	var out []sketch.TraitData
	for _, td := range data {
		if td.Address != "" {
			out = append(out, td)
		}
	}
	return out
}

// AddressConstants declares one address constant per addressed collection.
func AddressConstants(data []sketch.TraitData) string {
	var b strings.Builder
	for _, td := range addressed(data) {
		fmt.Fprintf(&b, "address private constant %sAddress = %s;\n", Identifier(td.Collection), td.Address)
	}
	return b.String()
}

// IndexConstants declares one index constant per addressed collection,
// numbered by filtered relative order.
func IndexConstants(data []sketch.TraitData) string {
	var b strings.Builder
	for i, td := range addressed(data) {
		fmt.Fprintf(&b, "uint256 private constant %sIndex = %d;\n", Identifier(td.Collection), i)
	}
	return b.String()
}

// TokenIDParams renders the constructor parameter list, one token id
// per addressed collection, without a trailing separator.
func TokenIDParams(data []sketch.TraitData) string {
	var parts []string
	for _, td := range addressed(data) {
		parts = append(parts, fmt.Sprintf("uint256 tokenId%s", Identifier(td.Collection)))
	}
	return strings.Join(parts, ", ")
}

// TokenIDMapping stores each constructor token id under its collection index.
func TokenIDMapping(data []sketch.TraitData) string {
	var b strings.Builder
	for _, td := range addressed(data) {
		id := Identifier(td.Collection)
		fmt.Fprintf(&b, "tokenIds[%sIndex] = tokenId%s;\n", id, id)
	}
	return b.String()
}

// OwnershipChecks asserts the caller owns each bound token.
func OwnershipChecks(data []sketch.TraitData) string {
	var b strings.Builder
	for _, td := range addressed(data) {
		id := Identifier(td.Collection)
		fmt.Fprintf(&b, "require(IERC721(%sAddress).ownerOf(tokenId%s) == msg.sender, \"%s token not owned\");\n",
			id, id, Escape(td.Collection))
	}
	return b.String()
}

// traitTypeToken maps a trait type onto its target-language enum member.
func traitTypeToken(t sketch.TraitType) string {
	switch t {
	case sketch.AsInt:
		return "TraitType.INT"
	case sketch.AsFloat:
		return "TraitType.FLOAT"
	default:
		return "TraitType.STRING"
	}
}

// TraitRegistrations registers every declared trait across all
// collections (addressed or not), then emits one trait-count statement
// per collection.
func TraitRegistrations(data []sketch.TraitData) string {
	var b strings.Builder
	for _, td := range data {
		for _, tr := range td.Traits {
			fmt.Fprintf(&b, "_registerTrait(\"%s\", \"%s\", %s);\n",
				Escape(td.Collection), Escape(tr.Key), traitTypeToken(tr.Type))
		}
	}
	for _, td := range data {
		fmt.Fprintf(&b, "_setTraitCount(\"%s\", %d);\n", Escape(td.Collection), len(td.Traits))
	}
	return b.String()
}

// StorageChunks declares one constant per pre-segmented sketch chunk,
// indexed from zero, followed by the total-count constant.
func StorageChunks(chunks []string) string {
	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "string private constant SKETCH_CHUNK_%d = \"%s\";\n", i, Escape(chunk))
	}
	fmt.Fprintf(&b, "uint256 private constant SKETCH_CHUNK_COUNT = %d;\n", len(chunks))
	return b.String()
}

// ChunkList renders the comma-joined chunk identifiers for concatenation.
func ChunkList(chunks []string) string {
	var parts []string
	for i := range chunks {
		parts = append(parts, fmt.Sprintf("SKETCH_CHUNK_%d", i))
	}
	return strings.Join(parts, ", ")
}

// MetadataAssembly folds one attribute assignment per collection with
// at least one trait or token binding, then the fixed canvas attribute.
func MetadataAssembly(data []sketch.TraitData) string {
	var b strings.Builder
	for _, td := range data {
		if len(td.Traits) == 0 && len(td.TokenIndexes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "attributes = _withCollectionAttribute(attributes, \"%s\");\n", Escape(td.Collection))
	}
	b.WriteString("attributes = _withCanvasAttribute(attributes);\n")
	return b.String()
}

// CollectionValues emits the resolved trait values of one collection as
// assignment statements. Emission is total: it works the same whether
// the values came from live metadata or from fallback zeros.
func CollectionValues(collection, address string, values []TraitValue) string {
	var b strings.Builder
	if address != "" {
		fmt.Fprintf(&b, "// %s (%s)\n", Identifier(collection), address)
	} else {
		fmt.Fprintf(&b, "// %s\n", Identifier(collection))
	}
	for _, v := range values {
		fmt.Fprintf(&b, "_setTraitValue(\"%s\", \"%s\", %s);\n",
			Escape(collection), Escape(v.Key), v.Literal)
	}
	return b.String()
}
