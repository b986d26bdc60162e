// Package metadata resolves live on-chain trait metadata for analyzed
// collections and emits the per-collection source fragments that embed
// the resolved values.
package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sketchmint/internal/codegen"
	"sketchmint/internal/logging"
	"sketchmint/internal/sketch"
)

// SourceType identifies which retrieval strategy produced a document.
type SourceType string

const (
	SourceForma   SourceType = "forma"   // custom getTokenMetadata read
	SourceERC721  SourceType = "erc721"  // standard tokenURI read
	SourceOpenSea SourceType = "opensea" // legacy uri read
	SourceUnknown SourceType = "unknown" // nothing succeeded
)

// Result is the outcome of one metadata retrieval.
type Result struct {
	Metadata   map[string]any `json:"metadata"`
	SourceType SourceType     `json:"sourceType"`
	Source     string         `json:"source"`
	Success    bool           `json:"success"`
	Err        string         `json:"error,omitempty"`
}

// CollectionCode is the per-collection resolution output. Code is
// always a syntactically complete fragment; Meta reflects the retrieval
// outcome, not the emission.
type CollectionCode struct {
	Collection string       `json:"collection"`
	Address    string       `json:"address"`
	TokenID    int64        `json:"tokenId"`
	Values     []TraitValue `json:"values"`
	Code       string       `json:"code"`
	Meta       Result       `json:"meta"`
}

// BatchCode aggregates sequential per-collection resolutions in input order.
type BatchCode struct {
	Code      string           `json:"code"`
	Results   []CollectionCode `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// ChainReader is the contract read surface the resolver depends on.
// *chain.Client satisfies it.
type ChainReader interface {
	TokenMetadata(ctx context.Context, address string, tokenID int64) (string, error)
	TokenURI(ctx context.Context, address string, tokenID int64) (string, error)
	URI(ctx context.Context, address string, tokenID int64) (string, error)
}

// defaultTokenID is used when a collection has no token binding.
const defaultTokenID = 1

// Resolver fetches trait metadata for collections. It holds only
// immutable configuration and is safe to reuse across sequential,
// non-overlapping calls. It imposes no internal timeout or retries
// beyond the HTTP client timeout; callers own cancellation via ctx.
type Resolver struct {
	reader  ChainReader
	gateway string
	http    *http.Client
}

// NewResolver builds a resolver. gateway is the HTTP prefix ipfs://
// URIs are rewritten onto.
func NewResolver(reader ChainReader, gateway string, httpTimeout time.Duration) *Resolver {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Resolver{
		reader:  reader,
		gateway: gateway,
		http:    &http.Client{Timeout: httpTimeout},
	}
}

// Resolve fetches metadata for one collection and emits its code
// fragment. It never returns an error: retrieval failures surface as
// Meta.Success == false with zero-valued traits in the fragment.
func (r *Resolver) Resolve(ctx context.Context, td sketch.TraitData) CollectionCode {
	log := logging.Get(logging.CategoryMetadata).With(
		"request", uuid.NewString(),
		"collection", td.Collection,
	)

	tokenID := int64(defaultTokenID)
	if len(td.TokenIndexes) > 0 {
		tokenID = td.TokenIndexes[0]
	}

	var meta Result
	if td.Address == "" {
		meta = Result{SourceType: SourceUnknown, Success: false, Err: "no address"}
		log.Warnw("skipping retrieval", "reason", "no address")
	} else {
		meta = r.fetch(ctx, td.Address, tokenID, log)
	}

	var extracted map[string]any
	if meta.Success {
		extracted = extractTraits(meta.Metadata)
	}

	values := make([]TraitValue, 0, len(td.Traits))
	literals := make([]codegen.TraitValue, 0, len(td.Traits))
	for _, tr := range td.Traits {
		raw, present := extracted[tr.Key]
		tv := coerceValue(tr.Type, raw, present)
		tv.Key = tr.Key
		values = append(values, tv)
		literals = append(literals, codegen.TraitValue{Key: tr.Key, Type: tr.Type, Literal: tv.literal()})
	}

	return CollectionCode{
		Collection: td.Collection,
		Address:    td.Address,
		TokenID:    tokenID,
		Values:     values,
		Code:       codegen.CollectionValues(td.Collection, td.Address, literals),
		Meta:       meta,
	}
}

// ResolveAll resolves collections strictly sequentially in input order.
// A slow collection delays everything after it; callers impose timeouts
// through ctx.
func (r *Resolver) ResolveAll(ctx context.Context, collections []sketch.TraitData) BatchCode {
	var batch BatchCode
	var code strings.Builder
	for _, td := range collections {
		res := r.Resolve(ctx, td)
		code.WriteString(res.Code)
		batch.Results = append(batch.Results, res)
		if res.Meta.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Code = code.String()
	return batch
}

// fetch attempts the retrieval strategies in strict order, stopping at
// the first success. Every attempt failure is caught locally.
func (r *Resolver) fetch(ctx context.Context, address string, tokenID int64, log *zap.SugaredLogger) Result {
	// Custom read method: inline JSON or a data: URI.
	if raw, err := r.reader.TokenMetadata(ctx, address, tokenID); err == nil {
		if doc, source, perr := parseInlineOrData(raw); perr == nil {
			log.Debugw("resolved", "strategy", SourceForma, "source", source)
			return Result{Metadata: doc, SourceType: SourceForma, Source: source, Success: true}
		} else {
			log.Debugw("strategy failed", "strategy", SourceForma, "err", perr)
		}
	} else {
		log.Debugw("strategy failed", "strategy", SourceForma, "err", err)
	}

	// Standard URI read.
	if uri, err := r.reader.TokenURI(ctx, address, tokenID); err == nil {
		if doc, rerr := r.resolveURI(ctx, uri); rerr == nil {
			log.Debugw("resolved", "strategy", SourceERC721, "source", uri)
			return Result{Metadata: doc, SourceType: SourceERC721, Source: uri, Success: true}
		} else {
			log.Debugw("strategy failed", "strategy", SourceERC721, "err", rerr)
		}
	} else {
		log.Debugw("strategy failed", "strategy", SourceERC721, "err", err)
	}

	// Legacy URI read.
	if uri, err := r.reader.URI(ctx, address, tokenID); err == nil {
		if doc, rerr := r.resolveURI(ctx, uri); rerr == nil {
			log.Debugw("resolved", "strategy", SourceOpenSea, "source", uri)
			return Result{Metadata: doc, SourceType: SourceOpenSea, Source: uri, Success: true}
		} else {
			log.Debugw("strategy failed", "strategy", SourceOpenSea, "err", rerr)
		}
	} else {
		log.Debugw("strategy failed", "strategy", SourceOpenSea, "err", err)
	}

	log.Warnw("all strategies exhausted", "contract", address, "tokenId", tokenID)
	return Result{
		SourceType: SourceUnknown,
		Success:    false,
		Err:        "no metadata strategy succeeded for " + address,
	}
}

// parseInlineOrData handles the custom read method's two return forms.
func parseInlineOrData(raw string) (map[string]any, string, error) {
	if strings.HasPrefix(raw, "data:") {
		doc, err := decodeDataURI(raw)
		return doc, "data-uri", err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, "", err
	}
	return doc, "inline", nil
}
