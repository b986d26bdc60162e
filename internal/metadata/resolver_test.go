package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchmint/internal/sketch"
)

var errNoMethod = errors.New("execution reverted")

// fakeReader stubs the contract read surface per strategy.
type fakeReader struct {
	metadata string
	tokenURI string
	uri      string
}

func (f *fakeReader) TokenMetadata(ctx context.Context, address string, tokenID int64) (string, error) {
	if f.metadata == "" {
		return "", errNoMethod
	}
	return f.metadata, nil
}

func (f *fakeReader) TokenURI(ctx context.Context, address string, tokenID int64) (string, error) {
	if f.tokenURI == "" {
		return "", errNoMethod
	}
	return f.tokenURI, nil
}

func (f *fakeReader) URI(ctx context.Context, address string, tokenID int64) (string, error) {
	if f.uri == "" {
		return "", errNoMethod
	}
	return f.uri, nil
}

func newTestResolver(t *testing.T, reader ChainReader, gateway string) *Resolver {
	t.Helper()
	r := NewResolver(reader, gateway, 2*time.Second)
	t.Cleanup(r.http.CloseIdleConnections)
	return r
}

var colorTrait = sketch.Trait{Collection: "A", Key: "Color", Type: sketch.AsString}

func traitDataA(traits ...sketch.Trait) sketch.TraitData {
	return sketch.TraitData{
		Collection:   "A",
		Address:      "0x00000000000000000000000000000000000000aa",
		Traits:       traits,
		TokenIndexes: []int64{3},
	}
}

func TestResolveNoAddress(t *testing.T) {
	r := newTestResolver(t, &fakeReader{}, "https://gw.test/ipfs/")

	res := r.Resolve(context.Background(), sketch.TraitData{
		Collection: "A",
		Traits:     []sketch.Trait{colorTrait},
	})

	assert.False(t, res.Meta.Success)
	assert.Equal(t, "no address", res.Meta.Err)
	assert.Equal(t, SourceUnknown, res.Meta.SourceType)
	// Code is still a complete fragment with zero values.
	assert.Contains(t, res.Code, `_setTraitValue("A", "Color", "");`)
	assert.Equal(t, int64(1), res.TokenID, "default token id when no binding exists")
}

func TestResolveInlineMetadata(t *testing.T) {
	reader := &fakeReader{
		metadata: `{"attributes":[{"trait_type":"Color","value":"Red"},{"trait_type":"Size","value":4}]}`,
	}
	r := newTestResolver(t, reader, "https://gw.test/ipfs/")

	res := r.Resolve(context.Background(), traitDataA(
		colorTrait,
		sketch.Trait{Collection: "A", Key: "Size", Type: sketch.AsInt},
	))

	require.True(t, res.Meta.Success, "inline metadata should resolve: %+v", res.Meta)
	assert.Equal(t, SourceForma, res.Meta.SourceType)
	assert.Equal(t, "inline", res.Meta.Source)
	assert.Equal(t, int64(3), res.TokenID, "first bound token id wins")
	assert.Contains(t, res.Code, `_setTraitValue("A", "Color", "Red");`)
	assert.Contains(t, res.Code, `_setTraitValue("A", "Size", 4);`)
}

func TestResolveDataURIMetadata(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"attributes":[{"trait_type":"Color","value":"Blue"}]}`))
	reader := &fakeReader{metadata: "data:application/json;base64," + payload}
	r := newTestResolver(t, reader, "https://gw.test/ipfs/")

	res := r.Resolve(context.Background(), traitDataA(colorTrait))

	require.True(t, res.Meta.Success)
	assert.Equal(t, SourceForma, res.Meta.SourceType)
	assert.Equal(t, "data-uri", res.Meta.Source)
	assert.Contains(t, res.Code, `"Blue"`)
}

func TestResolveFallsBackToTokenURIViaIPFS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/ipfs/QmHash" {
			http.NotFound(w, req)
			return
		}
		w.Write([]byte(`{"attributes":[{"trait_type":"Color","value":"Green"}]}`))
	}))
	defer srv.Close()

	reader := &fakeReader{tokenURI: "ipfs://QmHash"}
	r := newTestResolver(t, reader, srv.URL+"/ipfs/")

	res := r.Resolve(context.Background(), traitDataA(colorTrait))

	require.True(t, res.Meta.Success)
	assert.Equal(t, SourceERC721, res.Meta.SourceType)
	assert.Equal(t, "ipfs://QmHash", res.Meta.Source)
	assert.Contains(t, res.Code, `"Green"`)
}

func TestResolveFallsBackToLegacyURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"Color":"Gold","name":"ignored"}`))
	}))
	defer srv.Close()

	// Custom and standard reads both fail; legacy uri succeeds.
	reader := &fakeReader{uri: srv.URL + "/meta/3.json"}
	r := newTestResolver(t, reader, srv.URL+"/ipfs/")

	res := r.Resolve(context.Background(), traitDataA(colorTrait))

	require.True(t, res.Meta.Success)
	assert.Equal(t, SourceOpenSea, res.Meta.SourceType)
	assert.Contains(t, res.Code, `"Gold"`)
}

func TestResolveAllStrategiesExhausted(t *testing.T) {
	reader := &fakeReader{tokenURI: "ar://unsupported-scheme"}
	r := newTestResolver(t, reader, "https://gw.test/ipfs/")

	res := r.Resolve(context.Background(), traitDataA(colorTrait))

	assert.False(t, res.Meta.Success)
	assert.Equal(t, SourceUnknown, res.Meta.SourceType)
	assert.NotEmpty(t, res.Meta.Err)
	// Emission is unconditional.
	assert.Contains(t, res.Code, `_setTraitValue("A", "Color", "");`)
}

func TestResolveMalformedInlineFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"attributes":[{"trait_type":"Color","value":"Silver"}]}`))
	}))
	defer srv.Close()

	reader := &fakeReader{
		metadata: "not json at all",
		tokenURI: srv.URL + "/3",
	}
	r := newTestResolver(t, reader, srv.URL+"/ipfs/")

	res := r.Resolve(context.Background(), traitDataA(colorTrait))

	require.True(t, res.Meta.Success, "malformed custom payload must not be fatal")
	assert.Equal(t, SourceERC721, res.Meta.SourceType)
}

func TestResolveAllSequentialOrderAndCounts(t *testing.T) {
	reader := &fakeReader{metadata: `{"attributes":[{"trait_type":"Color","value":"Red"}]}`}
	r := newTestResolver(t, reader, "https://gw.test/ipfs/")

	batch := r.ResolveAll(context.Background(), []sketch.TraitData{
		traitDataA(colorTrait),
		{Collection: "missing", Traits: []sketch.Trait{{Collection: "missing", Key: "X", Type: sketch.AsInt}}},
	})

	require.Len(t, batch.Results, 2)
	assert.Equal(t, "A", batch.Results[0].Collection)
	assert.Equal(t, "missing", batch.Results[1].Collection)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	// Concatenated code preserves input order.
	first := strings.Index(batch.Code, "// A")
	second := strings.Index(batch.Code, "// Missing")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}
