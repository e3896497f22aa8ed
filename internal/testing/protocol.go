package testing

import (
	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/external"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/core/tx/restake"
)

// Protocol holds the identities of an initialized main state.
type Protocol struct {
	Main     solana.PublicKey
	PoolMint solana.PublicKey

	Admin      *Account
	Operator   *Account
	Rebalancer *Account
	Keeper     *Account

	TreasuryOwner *Account
	// Treasury is the treasury's pool-share account
	Treasury solana.PublicKey
}

// SetupProtocol initializes a main state with default fees and a valid
// treasury.
func (e *TestEnv) SetupProtocol() *Protocol {
	e.t.Helper()
	return e.SetupNamedProtocol("")
}

// SetupNamedProtocol is SetupProtocol with every identity prefixed by name,
// so several main states can share one environment.
func (e *TestEnv) SetupNamedProtocol(name string) *Protocol {
	e.t.Helper()
	if name != "" {
		name += "-"
	}
	p := &Protocol{
		Main:          Key(name + "main"),
		PoolMint:      Key(name + "pool-share-mint"),
		Admin:         NewAccount(name + "admin"),
		Operator:      NewAccount(name + "operator"),
		Rebalancer:    NewAccount(name + "rebalancer"),
		Keeper:        NewAccount(name + "keeper"),
		TreasuryOwner: NewAccount(name + "treasury"),
	}
	p.Treasury = keylet.AssociatedTokenAccount(p.TreasuryOwner.PublicKey, p.PoolMint)

	initTx := restake.NewInitialize(p.Admin.PublicKey, p.Main, p.PoolMint, p.Operator.PublicKey, p.Rebalancer.PublicKey)
	initTx.Treasury = &p.Treasury
	e.mustSucceed(initTx)
	e.FundAddress(p.TreasuryOwner.PublicKey, p.PoolMint, 0)
	return p
}

func (e *TestEnv) mustSucceed(txn tx.Transaction) {
	e.t.Helper()
	if r := e.Submit(txn); !r.Success {
		e.t.Fatalf("Fixture transaction %s failed: %s (%s)", txn.TxType(), r.Code, r.Detail)
	}
}

// AddParityVault creates the wrapped SOL vault, reads its price and opens
// it for deposits.
func (e *TestEnv) AddParityVault(p *Protocol) solana.PublicKey {
	e.t.Helper()
	mint := external.WrappedSolMint
	exists, err := e.store.Exists(keylet.Mint(mint))
	if err != nil {
		e.t.Fatalf("Failed to read mint %s: %v", mint, err)
	}
	if !exists {
		e.CreateMint(mint)
	}
	e.openVault(p, mint, nil)
	return mint
}

// StakePoolFixture is an LST priced by an SPL stake pool.
type StakePoolFixture struct {
	Mint    solana.PublicKey
	Address solana.PublicKey
	pool    external.StakePool
}

// AddStakePoolVault creates an LST mint, a stake pool pricing it at
// totalLamports/poolSupply and an open vault for it.
func (e *TestEnv) AddStakePoolVault(p *Protocol, name string, totalLamports, poolSupply uint64) *StakePoolFixture {
	e.t.Helper()
	f := &StakePoolFixture{
		Mint:    Key(name + "-mint"),
		Address: Key(name + "-pool"),
	}
	f.pool = external.StakePool{
		AccountType:     external.AccountTypeStakePool,
		PoolMint:        f.Mint,
		TotalLamports:   totalLamports,
		PoolTokenSupply: poolSupply,
	}
	e.CreateMint(f.Mint)
	state := f.Account()
	e.openVault(p, f.Mint, &state)
	return f
}

// SetPrice changes the pool's backing so the next price read yields
// totalLamports/poolSupply.
func (f *StakePoolFixture) SetPrice(totalLamports, poolSupply uint64) {
	f.pool.TotalLamports = totalLamports
	f.pool.PoolTokenSupply = poolSupply
}

// Account snapshots the pool as an external account.
func (f *StakePoolFixture) Account() external.Account {
	data, err := external.Encode(&f.pool)
	if err != nil {
		panic(err)
	}
	return external.Account{Address: f.Address, Owner: external.SplStakePoolProgramID, Data: data}
}

func (e *TestEnv) openVault(p *Protocol, mint solana.PublicKey, state *external.Account) {
	e.t.Helper()
	e.mustSucceed(restake.NewCreateVault(p.Admin.PublicKey, p.Main, mint))
	e.mustSucceed(restake.NewUpdateVaultPrice(p.Keeper.PublicKey, p.Main, mint, state))
	enabled := false
	cfg := restake.NewConfigureVault(p.Admin.PublicKey, p.Main, mint)
	cfg.DepositsDisabled = &enabled
	e.mustSucceed(cfg)
}

// StrategyFixture is an external strategy holding one vault's LST.
type StrategyFixture struct {
	Main    solana.PublicKey
	Program solana.PublicKey
	LstMint solana.PublicKey
	Address solana.PublicKey

	// Reported is the holding the strategy state claims
	Reported uint64
}

// AttachStrategy attaches a fresh, empty strategy to the vault of lst.
func (e *TestEnv) AttachStrategy(p *Protocol, lst solana.PublicKey, name string) *StrategyFixture {
	e.t.Helper()
	s := &StrategyFixture{
		Main:    p.Main,
		Program: Key(name + "-program"),
		LstMint: lst,
		Address: Key(name + "-state"),
	}
	e.mustSucceed(restake.NewAttachStrategy(p.Admin.PublicKey, p.Main, lst, s.Program, s.Account()))
	return s
}

// Account snapshots the strategy state as an external account.
func (s *StrategyFixture) Account() external.Account {
	data, err := external.Encode(&external.StrategyState{
		Discriminator:       external.StrategyStateDiscriminator,
		LstMint:             s.LstMint,
		StratTotalLstAmount: s.Reported,
	})
	if err != nil {
		panic(err)
	}
	return external.Account{Address: s.Address, Owner: s.Program, Data: data}
}

// DepositAccount is where LST sent to the strategy lands.
func (s *StrategyFixture) DepositAccount() solana.PublicKey {
	return keylet.StrategyDepositAccount(s.Address, s.Program, s.LstMint)
}

// WithdrawAccount is where the strategy stages LST for settlement.
func (s *StrategyFixture) WithdrawAccount() solana.PublicKey {
	return keylet.StrategyWithdrawAccount(s.Address, s.LstMint)
}

// Stage simulates the strategy handing amount back for settlement. The
// reported holding drops by the same amount.
func (e *TestEnv) Stage(s *StrategyFixture, amount uint64) {
	e.t.Helper()
	e.MoveTokens(s.DepositAccount(), s.WithdrawAccount(), amount)
	s.Reported -= amount
}
