package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFragments() Fragments {
	return Fragments{
		SketchName:         "MySketch",
		AddressConstants:   "ADDR;",
		IndexConstants:     "IDX;",
		StorageChunks:      "CHUNKS;",
		ChunkList:          "SKETCH_CHUNK_0",
		TraitRegistrations: "REG;",
		TokenIDParams:      "uint256 tokenIdA",
		TokenIDMapping:     "MAP;",
		OwnershipChecks:    "OWN;",
		MetadataExtraction: "EXTRACT;",
		MetadataAssembly:   "ASSEMBLY;",
	}
}

func TestAssembleDefaultTemplate(t *testing.T) {
	out, err := Assemble(DefaultTemplate(), fullFragments())
	require.NoError(t, err)

	assert.Contains(t, out, "contract MySketch {")
	assert.Contains(t, out, "EXTRACT;")
	assert.NotContains(t, out, "{{", "no placeholder may survive assembly")
}

func TestAssembleUnknownPlaceholder(t *testing.T) {
	tmpl := strings.Replace(DefaultTemplate(), "{{SKETCH_NAME}}", "{{MYSTERY}}", 1)
	_, err := Assemble(tmpl, fullFragments())
	require.ErrorIs(t, err, ErrPlaceholder)
}

func TestAssembleMissingPlaceholder(t *testing.T) {
	tmpl := strings.Replace(DefaultTemplate(), "{{OWNERSHIP_CHECKS}}", "", 1)
	_, err := Assemble(tmpl, fullFragments())
	require.ErrorIs(t, err, ErrPlaceholder)
	assert.Contains(t, err.Error(), "OWNERSHIP_CHECKS")
}

func TestAssembleDuplicatePlaceholder(t *testing.T) {
	tmpl := DefaultTemplate() + "\n{{SKETCH_NAME}}"
	_, err := Assemble(tmpl, fullFragments())
	require.ErrorIs(t, err, ErrPlaceholder)
}

func TestAssembleUnterminatedPlaceholder(t *testing.T) {
	_, err := Assemble("contract {{SKETCH_NAME", Fragments{})
	require.ErrorIs(t, err, ErrPlaceholder)
}

func TestAssembleDoesNotRescanSubstitutedText(t *testing.T) {
	frags := fullFragments()
	// A fragment that happens to contain placeholder syntax must pass
	// through verbatim, not be substituted again.
	frags.StorageChunks = `string private constant SKETCH_CHUNK_0 = "{{SKETCH_NAME}}";`

	out, err := Assemble(DefaultTemplate(), frags)
	require.NoError(t, err)
	assert.Contains(t, out, `"{{SKETCH_NAME}}"`)
	assert.Contains(t, out, "contract MySketch {")
}

func TestDefaultTemplatePlaceholderVocabulary(t *testing.T) {
	tmpl := DefaultTemplate()
	for name := range fullFragments().placeholderValues() {
		count := strings.Count(tmpl, "{{"+name+"}}")
		if count != 1 {
			t.Errorf("placeholder {{%s}} appears %d times in default template, want 1", name, count)
		}
	}
}
