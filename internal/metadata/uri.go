package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnsupportedURI is returned for URI schemes outside
// ipfs / http(s) / base64 data URIs.
var ErrUnsupportedURI = errors.New("unsupported uri scheme")

// resolveURI turns a metadata URI into a parsed document. ipfs:// URIs
// are rewritten onto the configured HTTP gateway.
func (r *Resolver) resolveURI(ctx context.Context, uri string) (map[string]any, error) {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		return r.fetchJSON(ctx, r.gateway+strings.TrimPrefix(uri, "ipfs://"))
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return r.fetchJSON(ctx, uri)
	case strings.HasPrefix(uri, "data:"):
		return decodeDataURI(uri)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, truncate(uri, 64))
	}
}

// fetchJSON GETs a URL and parses the body as a JSON object.
func (r *Resolver) fetchJSON(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return parseDocument(body)
}

// maxDocumentBytes caps metadata documents; anything larger is not a
// token metadata document.
const maxDocumentBytes = 4 << 20

// decodeDataURI decodes a base64 data URI and parses the payload as JSON.
func decodeDataURI(uri string) (map[string]any, error) {
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, fmt.Errorf("malformed data uri %q", truncate(uri, 64))
	}
	header, payload := uri[:comma], uri[comma+1:]
	if !strings.Contains(header, ";base64") {
		return nil, fmt.Errorf("%w: data uri without base64 encoding", ErrUnsupportedURI)
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data uri payload: %w", err)
	}
	return parseDocument(decoded)
}

// parseDocument parses bytes as a JSON object.
func parseDocument(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse metadata document: %w", err)
	}
	return doc, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
