package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/LeJamon/restaked/internal/storage/relationaldb"
)

var exportEventsCmd = &cobra.Command{
	Use:   "export-events",
	Short: "Copy the event journal into a SQLite or PostgreSQL table",
	Long: `Copy journal records into the restake_events table of a SQL database.
Without --from the export resumes after the highest sequence already in the
table, so the command can be run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("driver") {
			cfg.Events.ExportDriver, _ = flags.GetString("driver")
		}
		if flags.Changed("dsn") {
			cfg.Events.ExportDSN, _ = flags.GetString("dsn")
		}
		if flags.Changed("batch") {
			cfg.Events.ExportBatch, _ = flags.GetInt("batch")
		}
		if cfg.Events.ExportDSN == "" {
			return errors.New("no export target: set --dsn or events.export_dsn")
		}
		from, _ := flags.GetUint64("from")

		n, err := openNode(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer n.Close()

		dbCfg := relationaldb.NewConfig(cfg.Events.ExportDriver, cfg.Events.ExportDSN)
		dbCfg.BatchSize = cfg.Events.ExportBatch
		target, err := relationaldb.Open(cmd.Context(), dbCfg, log)
		if err != nil {
			return err
		}
		defer target.Close()

		res, err := target.Export(cmd.Context(), n.journal, from)
		if err != nil {
			return err
		}
		log.Info("events exported", "driver", dbCfg.Driver, "records", res.Exported, "last_seq", res.LastSeq)
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	exportEventsCmd.Flags().String("driver", "sqlite", "sqlite or postgres")
	exportEventsCmd.Flags().String("dsn", "", "database file (sqlite) or connection string (postgres)")
	exportEventsCmd.Flags().Uint64("from", 0, "first sequence to export; 0 resumes")
	exportEventsCmd.Flags().Int("batch", 500, "records per transaction")
	rootCmd.AddCommand(exportEventsCmd)
}
