package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var crankCmd = &cobra.Command{
	Use:   "crank",
	Short: "Run one keeper pass against the local ledger",
	Long: `Fetch the pricing and strategy accounts of every vault once, submit the
resulting crank transactions and print what happened. The [keeper] section
must be filled in; its enabled flag is ignored.`,
	RunE: runCrank,
}

func init() {
	rootCmd.AddCommand(crankCmd)
}

func runCrank(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Keeper.Enabled = true
	if err := cfg.Keeper.Validate(); err != nil {
		return fmt.Errorf("keeper config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := openNode(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer n.Close()

	k, err := newKeeper(cfg, n)
	if err != nil {
		return err
	}
	report, err := k.Tick(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "prices:     submitted=%d skipped=%d failed=%d\n",
		report.Prices.Submitted, report.Prices.Skipped, report.Prices.Failed)
	fmt.Fprintf(out, "strategies: submitted=%d skipped=%d failed=%d\n",
		report.Strategies.Submitted, report.Strategies.Skipped, report.Strategies.Failed)
	return nil
}
