package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/LeJamon/restaked/internal/core/ledger/keylet"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Key generation and address derivation",
}

var keysNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a fresh identity, e.g. for a main state or ticket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "public:  %s\nprivate: %s\n", key.PublicKey(), key)
		return nil
	},
}

var keysDeriveCmd = &cobra.Command{
	Use:   "derive <main> [lst-mint]",
	Short: "Print the program-derived addresses of a main state or vault",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := parseKeys(args)
		if err != nil {
			return err
		}
		main := keys[0]
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mint_authority:   %s\n", keylet.MintAuthority(main))
		fmt.Fprintf(out, "vaults_authority: %s\n", keylet.VaultsAuthority(main))
		if len(keys) == 2 {
			lst := keys[1]
			fmt.Fprintf(out, "vault:            %s\n", keylet.VaultAddress(main, lst))
			fmt.Fprintf(out, "vault_custody:    %s\n", keylet.VaultHoldingAccount(main, lst))
		}
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysNewCmd, keysDeriveCmd)
	rootCmd.AddCommand(keysCmd)
}
