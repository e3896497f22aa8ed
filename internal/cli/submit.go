package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/LeJamon/restaked/internal/core/tx"
	"github.com/LeJamon/restaked/internal/retry"
)

var submitCmd = &cobra.Command{
	Use:   "submit <tx.json|->",
	Short: "Submit a transaction",
	Long: `Submit a JSON transaction, selected by its TransactionType field, to a
running server. The server only accepts transactions signed by their Signer:
pass --keypair to sign with a solana-keygen file, or submit a transaction
that already carries its Signature. With --local the transaction is applied
directly to the ledger in the configured data directory instead; the server
must not be running then.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().String("url", "", "server base URL (default: derived from [server] listen)")
	submitCmd.Flags().Bool("local", false, "apply to the local ledger instead of a server")
	submitCmd.Flags().String("keypair", "", "solana-keygen file of the Signer to sign with")
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	body, err := readInput(args[0])
	if err != nil {
		return err
	}
	// Decode locally first so malformed input never reaches the server
	txn, err := tx.FromJSON(body)
	if err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}

	out := cmd.OutOrStdout()
	if local, _ := cmd.Flags().GetBool("local"); local {
		n, err := openNode(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer n.Close()
		res := n.engine.Apply(cmd.Context(), txn)
		if err := printJSON(out, res); err != nil {
			return err
		}
		return res.Err()
	}

	if keypair, _ := cmd.Flags().GetString("keypair"); keypair != "" {
		if body, err = signWithKeypair(txn, keypair); err != nil {
			return err
		}
	} else if txn.GetCommon().Signature == nil {
		return errors.New("transaction is not signed: pass --keypair or use --local")
	}

	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		url = "http://" + cfg.Server.Listen
	}
	resp, err := postTransaction(cmd.Context(), url+"/v1/tx", body)
	if err != nil {
		return err
	}
	_, err = out.Write(resp)
	return err
}

func signWithKeypair(txn tx.Transaction, path string) ([]byte, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	if err := tx.Sign(txn, key); err != nil {
		return nil, err
	}
	return tx.ToJSON(txn)
}

// postTransaction sends body and returns the response body. Transport
// failures and 5xx answers are retried; 4xx answers are returned as errors.
func postTransaction(ctx context.Context, url string, body []byte) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	var out []byte
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
		case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
			return retry.Permanent(fmt.Errorf("server rejected request: %s", bytes.TrimSpace(data)))
		}
		out = data
		return nil
	})
	return out, err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
