package codegen

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"sketchmint/internal/logging"
)

// ErrPlaceholder marks a template/generator mismatch: an unknown,
// duplicated, or missing placeholder. This is a defect in the template
// or the generator, not a user-facing runtime condition.
var ErrPlaceholder = errors.New("template placeholder mismatch")

//go:embed templates/base.sol.tmpl
var defaultTemplate string

// DefaultTemplate returns the embedded base contract template.
func DefaultTemplate() string {
	return defaultTemplate
}

// Fragments holds one generated value per template placeholder.
type Fragments struct {
	SketchName         string
	AddressConstants   string
	IndexConstants     string
	StorageChunks      string
	ChunkList          string
	TraitRegistrations string
	TokenIDParams      string
	TokenIDMapping     string
	OwnershipChecks    string
	MetadataExtraction string
	MetadataAssembly   string
}

func (f Fragments) placeholderValues() map[string]string {
	return map[string]string{
		"SKETCH_NAME":         f.SketchName,
		"ADDRESS_CONSTANTS":   f.AddressConstants,
		"INDEX_CONSTANTS":     f.IndexConstants,
		"STORAGE_CHUNKS":      f.StorageChunks,
		"CHUNK_LIST":          f.ChunkList,
		"TRAIT_REGISTRATIONS": f.TraitRegistrations,
		"TOKEN_ID_PARAMS":     f.TokenIDParams,
		"TOKEN_ID_MAPPING":    f.TokenIDMapping,
		"OWNERSHIP_CHECKS":    f.OwnershipChecks,
		"METADATA_EXTRACTION": f.MetadataExtraction,
		"METADATA_ASSEMBLY":   f.MetadataAssembly,
	}
}

// Assemble substitutes every placeholder in one linear scan over the
// template. Substituted content is never rescanned, so fragment text
// containing placeholder-like markers cannot be re-substituted. Each
// placeholder must appear exactly once.
func Assemble(template string, frags Fragments) (string, error) {
	values := frags.placeholderValues()
	seen := make(map[string]bool, len(values))

	var out strings.Builder
	out.Grow(len(template))

	pos := 0
	for pos < len(template) {
		open := strings.Index(template[pos:], "{{")
		if open < 0 {
			out.WriteString(template[pos:])
			break
		}
		open += pos
		out.WriteString(template[pos:open])

		end := strings.Index(template[open+2:], "}}")
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated placeholder at offset %d", ErrPlaceholder, open)
		}
		name := template[open+2 : open+2+end]

		value, known := values[name]
		if !known {
			return "", fmt.Errorf("%w: unknown placeholder {{%s}}", ErrPlaceholder, name)
		}
		if seen[name] {
			return "", fmt.Errorf("%w: placeholder {{%s}} appears more than once", ErrPlaceholder, name)
		}
		seen[name] = true
		out.WriteString(value)
		pos = open + 2 + end + 2
	}

	for name := range values {
		if !seen[name] {
			return "", fmt.Errorf("%w: placeholder {{%s}} missing from template", ErrPlaceholder, name)
		}
	}

	logging.Get(logging.CategoryCodegen).Debugw("template assembled",
		"templateBytes", len(template), "outputBytes", out.Len())
	return out.String(), nil
}
