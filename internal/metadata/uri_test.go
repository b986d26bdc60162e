package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveURIUnsupportedScheme(t *testing.T) {
	r := newTestResolver(t, &fakeReader{}, "https://gw.test/ipfs/")

	_, err := r.resolveURI(context.Background(), "ar://some-arweave-hash")
	if !errors.Is(err, ErrUnsupportedURI) {
		t.Errorf("expected ErrUnsupportedURI, got %v", err)
	}
}

func TestResolveURIDataURI(t *testing.T) {
	r := newTestResolver(t, &fakeReader{}, "https://gw.test/ipfs/")

	payload := base64.StdEncoding.EncodeToString([]byte(`{"Color":"Red"}`))
	doc, err := r.resolveURI(context.Background(), "data:application/json;base64,"+payload)
	if err != nil {
		t.Fatalf("resolveURI: %v", err)
	}
	if doc["Color"] != "Red" {
		t.Errorf("unexpected document: %v", doc)
	}
}

func TestDecodeDataURIRejectsNonBase64(t *testing.T) {
	if _, err := decodeDataURI("data:application/json,{}"); !errors.Is(err, ErrUnsupportedURI) {
		t.Errorf("expected ErrUnsupportedURI for plain data uri, got %v", err)
	}
	if _, err := decodeDataURI("data:no-comma"); err == nil {
		t.Error("expected error for malformed data uri")
	}
	if _, err := decodeDataURI("data:application/json;base64,!!!"); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
}

func TestFetchJSONStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/ok":
			w.Write([]byte(`{"Color":"Red"}`))
		case "/bad":
			w.Write([]byte(`not json`))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r := NewResolver(&fakeReader{}, srv.URL+"/ipfs/", 2*time.Second)
	t.Cleanup(r.http.CloseIdleConnections)

	if _, err := r.fetchJSON(context.Background(), srv.URL+"/ok"); err != nil {
		t.Errorf("fetchJSON ok: %v", err)
	}
	if _, err := r.fetchJSON(context.Background(), srv.URL+"/bad"); err == nil {
		t.Error("expected parse error for non-JSON body")
	}
	if _, err := r.fetchJSON(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestGatewayGetsTrailingSlash(t *testing.T) {
	r := NewResolver(&fakeReader{}, "https://gw.test/ipfs", time.Second)
	if r.gateway != "https://gw.test/ipfs/" {
		t.Errorf("gateway not normalized: %q", r.gateway)
	}
}
