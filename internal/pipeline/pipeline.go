// Package pipeline wires analysis, metadata resolution, and code
// generation into the end-to-end sketch-to-contract build.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"sketchmint/internal/codegen"
	"sketchmint/internal/logging"
	"sketchmint/internal/metadata"
	"sketchmint/internal/sketch"
)

// Segmenter slices sketch source into the chunks embedded as storage
// constants. Implementations must be deterministic.
type Segmenter interface {
	Segment(text string, maxChunkSize int) []string
}

// Formatter pretty-prints generated source. External collaborators
// (e.g. a Solidity formatter) implement this.
type Formatter interface {
	Format(source string) (string, error)
}

// Compiler turns generated source into a deployable artifact.
type Compiler interface {
	Compile(ctx context.Context, source, entryName string) (*Artifact, error)
}

// Artifact is a compiled contract plus compiler diagnostics.
type Artifact struct {
	Bytecode    []byte
	Diagnostics []string
}

// Resolver is the metadata-enrichment dependency; nil means offline
// generation with zero-valued traits.
type Resolver interface {
	ResolveAll(ctx context.Context, collections []sketch.TraitData) metadata.BatchCode
}

// Options configures one build.
type Options struct {
	// Name becomes the contract name, derived through the identifier
	// rule. Empty defaults to "Sketch".
	Name string
	// Template overrides the embedded base template.
	Template string
	// MaxChunkSize is handed to the segmenter.
	MaxChunkSize int
	Resolver     Resolver
	Segmenter    Segmenter
	Formatter    Formatter
}

// BuildResult carries the analysis, the optional resolution batch, and
// the assembled source.
type BuildResult struct {
	Analysis *sketch.Result
	Batch    *metadata.BatchCode
	Source   string
}

// Build runs the full pipeline over one sketch source.
func Build(ctx context.Context, source string, opts Options) (*BuildResult, error) {
	log := logging.Get(logging.CategoryPipeline)

	analysis := sketch.Analyze(source)
	result := &BuildResult{Analysis: analysis}
	if analysis.HasErrors() {
		return result, fmt.Errorf("sketch analysis failed: %s", firstError(analysis))
	}

	extraction := ""
	if opts.Resolver != nil {
		batch := opts.Resolver.ResolveAll(ctx, analysis.Data)
		result.Batch = &batch
		extraction = batch.Code
		log.Infow("metadata resolved", "succeeded", batch.Succeeded, "failed", batch.Failed)
	} else {
		extraction = zeroValueExtraction(analysis.Data)
		log.Debugw("offline build, using zero-valued traits")
	}

	segmenter := opts.Segmenter
	if segmenter == nil {
		segmenter = FixedSizeSegmenter{}
	}
	maxChunk := opts.MaxChunkSize
	if maxChunk <= 0 {
		maxChunk = 14000
	}
	chunks := segmenter.Segment(source, maxChunk)

	name := codegen.Identifier(opts.Name)
	if name == "" {
		name = "Sketch"
	}

	template := opts.Template
	if template == "" {
		template = codegen.DefaultTemplate()
	}

	assembled, err := codegen.Assemble(template, codegen.Fragments{
		SketchName:         name,
		AddressConstants:   codegen.AddressConstants(analysis.Data),
		IndexConstants:     codegen.IndexConstants(analysis.Data),
		StorageChunks:      codegen.StorageChunks(chunks),
		ChunkList:          codegen.ChunkList(chunks),
		TraitRegistrations: codegen.TraitRegistrations(analysis.Data),
		TokenIDParams:      codegen.TokenIDParams(analysis.Data),
		TokenIDMapping:     codegen.TokenIDMapping(analysis.Data),
		OwnershipChecks:    codegen.OwnershipChecks(analysis.Data),
		MetadataExtraction: extraction,
		MetadataAssembly:   codegen.MetadataAssembly(analysis.Data),
	})
	if err != nil {
		return result, err
	}

	if opts.Formatter != nil {
		formatted, ferr := opts.Formatter.Format(assembled)
		if ferr != nil {
			return result, fmt.Errorf("formatting failed: %w", ferr)
		}
		assembled = formatted
	}

	result.Source = assembled
	log.Infow("build complete", "collections", len(analysis.Collections), "chunks", len(chunks), "bytes", len(assembled))
	return result, nil
}

// zeroValueExtraction emits trait-value fragments without touching the
// network: every declared trait gets its type-appropriate zero.
func zeroValueExtraction(data []sketch.TraitData) string {
	var b strings.Builder
	for _, td := range data {
		literals := make([]codegen.TraitValue, 0, len(td.Traits))
		for _, tr := range td.Traits {
			literals = append(literals, codegen.TraitValue{
				Key:     tr.Key,
				Type:    tr.Type,
				Literal: zeroLiteral(tr.Type),
			})
		}
		b.WriteString(codegen.CollectionValues(td.Collection, td.Address, literals))
	}
	return b.String()
}

func zeroLiteral(t sketch.TraitType) string {
	switch t {
	case sketch.AsInt:
		return codegen.IntLiteral(0)
	case sketch.AsFloat:
		return codegen.FloatLiteral(0)
	default:
		return codegen.StringLiteral("")
	}
}

func firstError(res *sketch.Result) string {
	for _, issue := range res.Issues {
		if issue.Severity == sketch.SeverityError {
			return issue.Message
		}
	}
	return "unknown error"
}
