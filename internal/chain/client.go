// Package chain performs read-only contract calls against a JSON-RPC
// endpoint. It exposes the small fixed read surface the metadata
// resolver needs: getTokenMetadata, tokenURI, uri, ownerOf, and name.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"sketchmint/internal/logging"
)

// ErrEmptyResult is returned when a call succeeds but yields no data,
// which is how nodes answer calls to methods a contract does not have.
var ErrEmptyResult = errors.New("empty call result")

const readSurfaceABI = `[
	{"name":"getTokenMetadata","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"tokenURI","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"uri","type":"function","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var readSurface = mustParseABI(readSurfaceABI)

func mustParseABI(src string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid read-surface ABI: %v", err))
	}
	return parsed
}

// Client issues read calls against one endpoint. It holds only
// immutable configuration and is safe to reuse across sequential calls.
type Client struct {
	eth     *ethclient.Client
	chainID int64
	timeout time.Duration
}

// Dial connects to a JSON-RPC endpoint. The connection is lazy for
// HTTP endpoints; no network traffic happens until the first call.
func Dial(ctx context.Context, endpoint string, chainID int64, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	logging.Get(logging.CategoryChain).Debugw("dialed endpoint", "endpoint", endpoint, "chainId", chainID)
	return &Client{eth: eth, chainID: chainID, timeout: timeout}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() int64 {
	return c.chainID
}

// VerifyChain cross-checks the endpoint's chain id against the
// configured one.
func (c *Client) VerifyChain(ctx context.Context) error {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to query chain id: %w", err)
	}
	if id.Int64() != c.chainID {
		return fmt.Errorf("endpoint reports chain %d, configured for %d", id.Int64(), c.chainID)
	}
	return nil
}

// TokenMetadata calls getTokenMetadata(tokenId), the custom read method
// that returns metadata inline or as a data: URI.
func (c *Client) TokenMetadata(ctx context.Context, address string, tokenID int64) (string, error) {
	return c.callString(ctx, address, "getTokenMetadata", big.NewInt(tokenID))
}

// TokenURI calls the standard tokenURI(tokenId) read method.
func (c *Client) TokenURI(ctx context.Context, address string, tokenID int64) (string, error) {
	return c.callString(ctx, address, "tokenURI", big.NewInt(tokenID))
}

// URI calls the legacy uri(id) read method.
func (c *Client) URI(ctx context.Context, address string, tokenID int64) (string, error) {
	return c.callString(ctx, address, "uri", big.NewInt(tokenID))
}

// Name calls name().
func (c *Client) Name(ctx context.Context, address string) (string, error) {
	return c.callString(ctx, address, "name")
}

// OwnerOf calls ownerOf(tokenId) and returns the owner address.
func (c *Client) OwnerOf(ctx context.Context, address string, tokenID int64) (string, error) {
	out, err := c.call(ctx, address, "ownerOf", big.NewInt(tokenID))
	if err != nil {
		return "", err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("ownerOf returned unexpected type %T", out[0])
	}
	return owner.Hex(), nil
}

func (c *Client) callString(ctx context.Context, address, method string, args ...interface{}) (string, error) {
	out, err := c.call(ctx, address, method, args...)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%s returned unexpected type %T", method, out[0])
	}
	if s == "" {
		return "", fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}
	return s, nil
}

func (c *Client) call(ctx context.Context, address, method string, args ...interface{}) ([]interface{}, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := logging.Get(logging.CategoryChain)
	start := time.Now()

	data, err := readSurface.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	to := common.HexToAddress(address)
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		log.Debugw("call failed", "method", method, "contract", address, "err", err)
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}

	out, err := readSurface.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}

	log.Debugw("call ok", "method", method, "contract", address, "took", time.Since(start))
	return out, nil
}
