package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/LeJamon/restaked/internal/core/ledger/store"
	"github.com/LeJamon/restaked/internal/core/tx"
)

// showCmd groups read-only lookups against the local ledger
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print ledger records from the local data directory",
}

// lookup is one show subcommand: it parses its arguments as public keys and
// returns the record to print.
type lookup struct {
	use   string
	short string
	args  int
	fn    func(view tx.LedgerView, keys []solana.PublicKey) (any, error)
}

var lookups = []lookup{
	{
		use: "main <main>", short: "Show a main state", args: 1,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) { return store.MainState(view, k[0]) },
	},
	{
		use: "vaults <main>", short: "List the vaults of a main state", args: 1,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) { return store.Vaults(view, k[0]) },
	},
	{
		use: "vault <main> <lst-mint>", short: "Show one vault", args: 2,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) { return store.Vault(view, k[0], k[1]) },
	},
	{
		use: "strategies <main>", short: "List the strategies attached to a main state", args: 1,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) {
			return store.Strategies(view, k[0], solana.PublicKey{})
		},
	},
	{
		use: "strategy <main> <lst-mint> <strategy-state>", short: "Show one strategy bridge entry", args: 3,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) {
			return store.Strategy(view, k[0], k[1], k[2])
		},
	},
	{
		use: "tickets <main>", short: "List the open unstake tickets of a main state", args: 1,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) { return store.Tickets(view, k[0]) },
	},
	{
		use: "ticket <ticket>", short: "Show one unstake ticket", args: 1,
		fn: func(view tx.LedgerView, k []solana.PublicKey) (any, error) { return store.Ticket(view, k[0]) },
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	for _, l := range lookups {
		showCmd.AddCommand(&cobra.Command{
			Use:   l.use,
			Short: l.short,
			Args:  cobra.ExactArgs(l.args),
			RunE: func(cmd *cobra.Command, args []string) error {
				keys, err := parseKeys(args)
				if err != nil {
					return err
				}
				return withLedger(cmd, func(view tx.LedgerView) error {
					record, err := l.fn(view, keys)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), record)
				})
			},
		})
	}

	auditCmd.Flags().Uint64("tolerance", 0, "deficit in lamports tolerated as rounding drift")
	rootCmd.AddCommand(auditCmd)

	eventsCmd.Flags().Uint64("from", 0, "first sequence to print")
	eventsCmd.Flags().Int("limit", 100, "maximum number of events")
	rootCmd.AddCommand(eventsCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit <main>",
	Short: "Check the value balance and vault invariants of a main state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := parseKeys(args)
		if err != nil {
			return err
		}
		tolerance, _ := cmd.Flags().GetUint64("tolerance")
		return withLedger(cmd, func(view tx.LedgerView) error {
			report, err := store.Audit(view, keys[0], tolerance)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.OK {
				return fmt.Errorf("audit of %s failed", keys[0])
			}
			return nil
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the event journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, _ := cmd.Flags().GetUint64("from")
		limit, _ := cmd.Flags().GetInt("limit")
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		n, err := openNode(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer n.Close()

		records, err := n.journal.List(cmd.Context(), from, limit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\n",
				rec.Seq, rec.Timestamp.Format("2006-01-02T15:04:05Z"), rec.TxType, rec.Name, rec.Payload)
		}
		return nil
	},
}

func parseKeys(args []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, len(args))
	for i, arg := range args {
		key, err := solana.PublicKeyFromBase58(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid public key %q: %w", arg, err)
		}
		keys[i] = key
	}
	return keys, nil
}

// withLedger opens the configured ledger for the duration of fn.
func withLedger(cmd *cobra.Command, fn func(view tx.LedgerView) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	n, err := openNode(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer n.Close()
	return fn(n.engine.View())
}
