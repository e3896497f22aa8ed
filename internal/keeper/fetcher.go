package keeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/retry"
)

// ErrAccountNotFound is returned when the cluster has no account at the
// requested address.
var ErrAccountNotFound = errors.New("account not found")

// Fetcher reads external accounts the keeper feeds into crank transactions.
type Fetcher interface {
	FetchAccount(ctx context.Context, addr solana.PublicKey) (external.Account, error)
}

// RPCFetcher fetches accounts from a Solana JSON-RPC node. Calls are rate
// limited and transient failures are retried with backoff.
type RPCFetcher struct {
	client  *rpc.Client
	limiter *rate.Limiter
	retry   retry.Config
}

// NewRPCFetcher creates a fetcher allowing rps requests per second.
func NewRPCFetcher(endpoint string, rps float64, retryCfg retry.Config) *RPCFetcher {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RPCFetcher{
		client:  rpc.New(endpoint),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		retry:   retryCfg,
	}
}

// FetchAccount returns the owner and raw data of the account at addr.
func (f *RPCFetcher) FetchAccount(ctx context.Context, addr solana.PublicKey) (external.Account, error) {
	var acct external.Account
	err := retry.Do(ctx, f.retry, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		res, err := f.client.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		if errors.Is(err, rpc.ErrNotFound) || (err == nil && (res == nil || res.Value == nil)) {
			return retry.Permanent(fmt.Errorf("%w: %s", ErrAccountNotFound, addr))
		}
		if err != nil {
			return fmt.Errorf("get account info %s: %w", addr, err)
		}
		acct = external.Account{
			Address: addr,
			Owner:   res.Value.Owner,
			Data:    res.Value.Data.GetBinary(),
		}
		return nil
	})
	return acct, err
}
