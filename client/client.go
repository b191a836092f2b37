package client

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/nerolation/spamoor/types"
)

const (
	defaultTimeout     = 30 * time.Second
	receiptPollEvery   = 500 * time.Millisecond
	defaultReceiptWait = 2 * time.Minute
)

// Backend is the narrow slice of the go-ethereum client this package needs.
// *ethclient.Client satisfies it; tests substitute fakes or the simulated
// backend.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
}

// Config describes one RPC endpoint. Immutable after construction.
type Config struct {
	URL     string
	Name    string
	Group   string
	ChainID *big.Int // optional, fetched lazily when nil
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
			c.Name = u.Host
		} else {
			c.Name = c.URL
		}
	}
	if c.Group == "" {
		c.Group = "default"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Client wraps one network connection. It caches the chain id and the most
// recently observed block header; callers needing a fresh gas limit must
// invalidate explicitly.
type Client struct {
	logger  *zap.Logger
	cfg     Config
	backend Backend

	mu      sync.Mutex
	chainID *big.Int
	header  *gethtypes.Header
}

// New wraps an existing backend. Used by tests and by Dial.
func New(logger *zap.Logger, cfg Config, backend Backend) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		logger:  logger.With(zap.String("client", cfg.Name)),
		cfg:     cfg,
		backend: backend,
		chainID: cfg.ChainID,
	}
}

// Dial connects to the configured endpoint over HTTP with a tuned transport
// and a per-request ceiling.
func Dial(ctx context.Context, logger *zap.Logger, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	tr := &http.Transport{
		MaxConnsPerHost:     256,
		MaxIdleConns:        2048,
		MaxIdleConnsPerHost: 1024,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	hc := &http.Client{
		Transport: tr,
		Timeout:   cfg.Timeout,
	}
	rpcClient, err := rpc.DialOptions(ctx, cfg.URL, rpc.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", types.ErrConnection, cfg.URL, err)
	}

	return New(logger, cfg, ethclient.NewClient(rpcClient)), nil
}

// Name returns the display name derived from the config or URL.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Group returns the group label.
func (c *Client) Group() string {
	return c.cfg.Group
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.cfg.URL
}

// ChainID returns the configured or fetched chain id, cached after the
// first fetch.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching chain id from %s: %v", types.ErrConnection, c.cfg.Name, err)
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// BlockGasLimit returns the gas limit of the most recently observed block,
// fetched once and cached. Callers fall back to a conservative default when
// this returns an error or zero.
func (c *Client) BlockGasLimit(ctx context.Context) (uint64, error) {
	header, err := c.latestHeader(ctx)
	if err != nil {
		return 0, err
	}
	return header.GasLimit, nil
}

// SupportsBlobs reports whether the chain advertises an EIP-4844 blob
// schedule, based on the cached header.
func (c *Client) SupportsBlobs(ctx context.Context) (bool, error) {
	header, err := c.latestHeader(ctx)
	if err != nil {
		return false, err
	}
	return header.ExcessBlobGas != nil, nil
}

// InvalidateHeader drops the cached header so the next chain-state read
// fetches a fresh one.
func (c *Client) InvalidateHeader() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header = nil
}

func (c *Client) latestHeader(ctx context.Context) (*gethtypes.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.header != nil {
		return c.header, nil
	}
	header, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching latest header from %s: %v", types.ErrConnection, c.cfg.Name, err)
	}
	c.header = header
	return header, nil
}

// PendingNonceAt returns the pending transaction count for an account.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.backend.PendingNonceAt(ctx, account)
}

// SuggestGasPrice returns the node's suggested gas price.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: suggesting gas price from %s: %v", types.ErrConnection, c.cfg.Name, err)
	}
	return price, nil
}

// SendTx submits a signed transaction and returns its hash.
func (c *Client) SendTx(ctx context.Context, tx *gethtypes.Transaction) (common.Hash, error) {
	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s rejected %s: %v", types.ErrSubmission, c.cfg.Name, tx.Hash().Hex(), err)
	}
	return tx.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or the timeout
// elapses. Context cancellation aborts the wait early.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*gethtypes.Receipt, error) {
	if timeout <= 0 {
		timeout = defaultReceiptWait
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			// a cancelled parent is not a receipt timeout
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s after %s", types.ErrReceiptTimeout, txHash.Hex(), timeout)
		case <-ticker.C:
			receipt, err := c.backend.TransactionReceipt(waitCtx, txHash)
			if err == nil {
				return receipt, nil
			}
			// not mined yet, keep polling
		}
	}
}
