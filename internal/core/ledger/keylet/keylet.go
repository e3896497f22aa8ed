package keylet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/LeJamon/restaked/internal/core/ledger/entry"
)

// ProgramID owns every derived restaking address.
var ProgramID = solana.MustPublicKeyFromBase58("MPSoLoEnfNRFReRZSVH2V8AffSmWSR4dVoBLFm1YpAW")

// Seeds used for program-derived addresses
var (
	seedMintAuthority     = []byte("main-mint")
	seedVaultsAuthority   = []byte("vaults-ata-auth")
	seedStratWithdrawAuth = []byte("lst_withdraw_authority")
	seedStrategyAuthority = []byte("authority")
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// Address returns the key as a public key.
func (k Keylet) Address() solana.PublicKey {
	return solana.PublicKeyFromBytes(k.Key[:])
}

func (k Keylet) String() string {
	return fmt.Sprintf("%s(%s)", k.Type, k.Address())
}

// derive computes a program-derived address. The bump search only fails when
// no off-curve point exists among 256 candidates, which does not happen for
// the fixed seed shapes used here.
func derive(program solana.PublicKey, seeds ...[]byte) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		panic(fmt.Sprintf("keylet: derive address: %v", err))
	}
	return addr
}

// MainState returns the keylet for a main state; its identity is chosen at
// initialization.
func MainState(id solana.PublicKey) Keylet {
	return Keylet{Type: entry.TypeMainState, Key: id}
}

// VaultAddress derives a vault's address from its main state and LST mint.
func VaultAddress(main, lstMint solana.PublicKey) solana.PublicKey {
	return derive(ProgramID, main[:], lstMint[:])
}

// Vault returns the keylet for the vault of lstMint under main.
func Vault(main, lstMint solana.PublicKey) Keylet {
	return Keylet{Type: entry.TypeVaultState, Key: VaultAddress(main, lstMint)}
}

// StrategyEntry returns the keylet for the bridge between the vault of
// lstMint under main and a strategy state.
func StrategyEntry(main, lstMint, strategyState solana.PublicKey) Keylet {
	vault := VaultAddress(main, lstMint)
	return Keylet{
		Type: entry.TypeStrategyEntry,
		Key:  derive(ProgramID, vault[:], strategyState[:]),
	}
}

// Ticket returns the keylet for an unstake ticket; its identity is fresh per request.
func Ticket(id solana.PublicKey) Keylet {
	return Keylet{Type: entry.TypeUnstakeTicket, Key: id}
}

// Mint returns the keylet for a token mint.
func Mint(mint solana.PublicKey) Keylet {
	return Keylet{Type: entry.TypeMint, Key: mint}
}

// TokenAccount returns the keylet for a token account at addr.
func TokenAccount(addr solana.PublicKey) Keylet {
	return Keylet{Type: entry.TypeTokenAccount, Key: addr}
}

// MintAuthority is the pool-share mint authority of a main state.
func MintAuthority(main solana.PublicKey) solana.PublicKey {
	return derive(ProgramID, main[:], seedMintAuthority)
}

// VaultsAuthority owns every vault custody account of a main state.
func VaultsAuthority(main solana.PublicKey) solana.PublicKey {
	return derive(ProgramID, main[:], seedVaultsAuthority)
}

// StrategyWithdrawAuthority owns the staging account a strategy returns LST to.
func StrategyWithdrawAuthority(strategyState solana.PublicKey) solana.PublicKey {
	return derive(ProgramID, seedStratWithdrawAuth, strategyState[:])
}

// StrategyAuthority is the strategy program's own authority for a state.
func StrategyAuthority(strategyState, strategyProgram solana.PublicKey) solana.PublicKey {
	return derive(strategyProgram, seedStrategyAuthority, strategyState[:])
}

// AssociatedTokenAccount returns the canonical token account of owner for mint.
func AssociatedTokenAccount(owner, mint solana.PublicKey) solana.PublicKey {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		panic(fmt.Sprintf("keylet: associated token address: %v", err))
	}
	return addr
}

// VaultHoldingAccount is the custody account of a vault.
func VaultHoldingAccount(main, lstMint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAccount(VaultsAuthority(main), lstMint)
}

// StrategyDepositAccount receives LST sent to a strategy.
func StrategyDepositAccount(strategyState, strategyProgram, lstMint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAccount(StrategyAuthority(strategyState, strategyProgram), lstMint)
}

// StrategyWithdrawAccount stages LST a strategy hands back to the vault.
func StrategyWithdrawAccount(strategyState, lstMint solana.PublicKey) solana.PublicKey {
	return AssociatedTokenAccount(StrategyWithdrawAuthority(strategyState), lstMint)
}
