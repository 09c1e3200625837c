// Command ledger-wallet is the interactive wallet CLI: balance, send
// and exit commands over a stateless pkg/walletclient connection to a
// node. Grounded on the teacher's cmd/gochain wallet subcommands
// (createWalletCmd/createTransactionCmd/getBalanceCmd), reshaped into
// a single interactive REPL per this spec's CLI surface, with contact
// resolution and on-disk key/config encoding left as an external,
// stubbed-out concern exactly as the spec's non-goals require.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ledgerforge/chain/pkg/walletclient"
	"github.com/ledgerforge/chain/pkg/xsig"
)

var (
	nodeAddr   string
	keyFile    string
	configFile string
)

func main() {
	root := &cobra.Command{
		Use:   "ledger-wallet",
		Short: "ledger-wallet is an interactive client for a ledgerd node",
	}
	root.PersistentFlags().StringVar(&nodeAddr, "node", "127.0.0.1:9000", "address of the node to talk to")
	root.PersistentFlags().StringVar(&keyFile, "key-file", "wallet.key", "path to the hex-encoded owned private key")
	root.PersistentFlags().StringVar(&configFile, "config", "wallet.yaml", "path to the wallet's contacts/fee-policy config")

	root.AddCommand(replCmd(), initConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// walletFile is the stub, human-editable config this spec's non-goals
// leave the on-disk shape of up to the caller; yaml keeps it readable.
type walletFile struct {
	Contacts  map[string]string `yaml:"contacts"`
	FeeKind   string            `yaml:"fee_kind"`
	FeeValue  uint64            `yaml:"fee_value"`
}

func defaultWalletFile() walletFile {
	return walletFile{
		Contacts: map[string]string{},
		FeeKind:  "fixed",
		FeeValue: 1,
	}
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "emit a stub wallet config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := defaultWalletFile()
			out, err := yaml.Marshal(wf)
			if err != nil {
				return err
			}
			if err := os.WriteFile(configFile, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", configFile, err)
			}
			fmt.Printf("wrote stub config to %s\n", configFile)
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "start the interactive balance/send/exit REPL",
		RunE:  runRepl,
	}
}

func runRepl(cmd *cobra.Command, args []string) error {
	priv, err := loadKey(keyFile)
	if err != nil {
		return fmt.Errorf("ledger-wallet: %w", err)
	}
	wf, err := loadWalletFile(configFile)
	if err != nil {
		return fmt.Errorf("ledger-wallet: %w", err)
	}

	contacts, err := parseContacts(wf.Contacts)
	if err != nil {
		return fmt.Errorf("ledger-wallet: %w", err)
	}
	policy := parseFeePolicy(wf)

	w := walletclient.New(nodeAddr, policy, []xsig.PrivateKey{priv})

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("ledger-wallet ready. Commands: balance | send <contact> <amount> | exit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "exit":
			return nil

		case "balance":
			if err := w.FetchUTXOs(); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("balance: %d\n", w.Balance())

		case "send":
			if len(fields) != 3 {
				fmt.Println("usage: send <contact-name> <amount>")
				continue
			}
			amount, err := strconv.ParseUint(fields[2], 10, 64)
			if err != nil {
				fmt.Printf("invalid amount: %v\n", err)
				continue
			}
			if err := doSend(w, contacts, fields[1], amount); err != nil {
				fmt.Printf("error: %v\n", err)
			}

		default:
			fmt.Println("unknown command")
		}
	}
}

func doSend(w *walletclient.Wallet, contacts walletclient.Contacts, name string, amount uint64) error {
	recipient, err := contacts.Resolve(name)
	if err != nil {
		return err
	}
	if err := w.FetchUTXOs(); err != nil {
		return fmt.Errorf("fetch_utxos: %w", err)
	}
	tx, err := w.CreateTransaction(recipient, amount)
	if err != nil {
		return err
	}
	if err := w.SubmitTransaction(tx); err != nil {
		return fmt.Errorf("submit_transaction: %w", err)
	}
	fmt.Printf("sent %d to %s\n", amount, name)
	return nil
}

func parseContacts(raw map[string]string) (walletclient.Contacts, error) {
	out := make(walletclient.Contacts, len(raw))
	for name, hexKey := range raw {
		b, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("contact %s: %w", name, err)
		}
		pub, err := xsig.PublicKeyFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("contact %s: %w", name, err)
		}
		out[name] = pub
	}
	return out, nil
}

func parseFeePolicy(wf walletFile) walletclient.FeePolicy {
	kind := walletclient.FeeFixed
	if strings.EqualFold(wf.FeeKind, "percent") {
		kind = walletclient.FeePercent
	}
	return walletclient.FeePolicy{Kind: kind, Value: wf.FeeValue}
}

func loadWalletFile(path string) (walletFile, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultWalletFile(), nil
	}
	if err != nil {
		return walletFile{}, err
	}
	var wf walletFile
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return walletFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if wf.Contacts == nil {
		wf.Contacts = map[string]string{}
	}
	return wf, nil
}

func loadKey(path string) (xsig.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		b, decodeErr := hex.DecodeString(string(raw))
		if decodeErr != nil {
			return xsig.PrivateKey{}, fmt.Errorf("parse key file %s: %w", path, decodeErr)
		}
		return xsig.PrivateKeyFromBytes(b)
	}
	if !os.IsNotExist(err) {
		return xsig.PrivateKey{}, err
	}
	priv, err := xsig.GeneratePrivateKey()
	if err != nil {
		return xsig.PrivateKey{}, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(priv.Bytes())), 0o600); err != nil {
		return xsig.PrivateKey{}, fmt.Errorf("write key file %s: %w", path, err)
	}
	return priv, nil
}
