package restake

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/fixedpoint"
	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
	"github.com/LeJamon/restaked/internal/core/oracle"
	"github.com/LeJamon/restaked/internal/core/token"
	"github.com/LeJamon/restaked/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeStake, func() tx.Transaction {
		return &Stake{BaseTx: *tx.NewBaseTx(tx.TypeStake, solana.PublicKey{})}
	})
}

// Stake deposits LST from the signer's token account into a vault and mints
// pool shares priced against the pre-deposit backing.
type Stake struct {
	tx.BaseTx

	MainState solana.PublicKey `json:"MainState"`
	LstMint   solana.PublicKey `json:"LstMint"`
	LstAmount uint64           `json:"LstAmount"`
	RefCode   uint32           `json:"RefCode,omitempty"`
}

// NewStake creates a new Stake transaction
func NewStake(depositor, mainState, lstMint solana.PublicKey, lstAmount uint64) *Stake {
	return &Stake{
		BaseTx:    *tx.NewBaseTx(tx.TypeStake, depositor),
		MainState: mainState,
		LstMint:   lstMint,
		LstAmount: lstAmount,
	}
}

// TxType returns the transaction type
func (s *Stake) TxType() tx.Type {
	return tx.TypeStake
}

// Validate validates the Stake transaction
func (s *Stake) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if err := validateVaultRef(s.MainState, s.LstMint); err != nil {
		return err
	}
	if s.LstAmount == 0 {
		return ErrAmountRequired
	}
	return nil
}

// Apply applies the Stake transaction to the ledger.
func (s *Stake) Apply(ctx *tx.ApplyContext) tx.Result {
	main, err := loadMain(ctx.View, s.MainState)
	if err != nil {
		return fail(ctx, err)
	}
	vault, err := loadVault(ctx.View, s.MainState, s.LstMint)
	if err != nil {
		return fail(ctx, err)
	}

	if vault.DepositsDisabled {
		return fail(ctx, fmt.Errorf("%w: vault %s", errDepositsDisabled, s.LstMint))
	}
	if s.LstAmount < ctx.Config.MinMovement {
		return fail(ctx, fmt.Errorf("%w: %d lst < %d", errDepositTooSmall, s.LstAmount, ctx.Config.MinMovement))
	}
	if err := oracle.CheckNotStale(vault.LstSolPriceTimestamp, ctx.Now, ctx.Config.StalenessLimit); err != nil {
		return fail(ctx, err)
	}

	deposited, err := fixedpoint.LstToSolValue(s.LstAmount, vault.LstSolPriceScaled)
	if err != nil {
		return fail(ctx, err)
	}
	if deposited < ctx.Config.MinMovement {
		return fail(ctx, fmt.Errorf("%w: %d sol value < %d", errDepositTooSmall, deposited, ctx.Config.MinMovement))
	}

	// Shares are priced before backing moves.
	supplyBefore, err := shareSupply(ctx.View, main)
	if err != nil {
		return fail(ctx, err)
	}
	backingBefore := main.BackingSolValue
	shares, err := fixedpoint.SolValueToShares(deposited, backingBefore, supplyBefore)
	if err != nil {
		return fail(ctx, err)
	}

	source := keylet.AssociatedTokenAccount(ctx.Signer, s.LstMint)
	if err := token.Transfer(ctx.View, source, vault.LstHoldingAccount, s.LstAmount); err != nil {
		return fail(ctx, err)
	}
	if err := vault.RecordDeposit(s.LstAmount); err != nil {
		return fail(ctx, err)
	}

	// The deposit fee is not minted; it accrues to existing holders.
	fee, err := fixedpoint.ApplyBp(shares, main.DepositFeeBp)
	if err != nil {
		return fail(ctx, err)
	}
	received := shares - fee
	shareAccount, err := token.EnsureAccount(ctx.View, ctx.Signer, main.PoolShareMint)
	if err != nil {
		return fail(ctx, err)
	}
	if err := token.MintTo(ctx.View, main.PoolShareMint, shareAccount, received); err != nil {
		return fail(ctx, err)
	}

	if main.BackingSolValue, err = fixedpoint.Add(main.BackingSolValue, deposited); err != nil {
		return fail(ctx, err)
	}

	if err := update(ctx.View, keylet.Vault(s.MainState, s.LstMint), vault); err != nil {
		return fail(ctx, err)
	}
	if err := update(ctx.View, keylet.MainState(s.MainState), main); err != nil {
		return fail(ctx, err)
	}

	ctx.Emit(events.StakeEvent{
		Main:                  s.MainState,
		LstMint:               s.LstMint,
		Depositor:             ctx.Signer,
		DepositorLstAccount:   source,
		DepositorShareAccount: shareAccount,
		RefCode:               s.RefCode,
		LstAmount:             s.LstAmount,
		LstPriceScaled:        vault.LstSolPriceScaled,
		DepositedSolValue:     deposited,
		SharesComputed:        shares,
		DepositFeeShares:      fee,
		SharesReceived:        received,
		BackingSolValueBefore: backingBefore,
		ShareSupplyBefore:     supplyBefore,
		BackingSolValue:       main.BackingSolValue,
		ShareSupply:           supplyBefore + received,
	})
	return tx.TesSUCCESS
}
