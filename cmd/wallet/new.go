package wallet

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/jetton-signer/internal/wallet/address"
	"github/chapool/jetton-signer/internal/wallet/custody"
	"golang.org/x/term"
)

func newNew() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generates a new sender wallet",
		Long: `Generates a new 24 word recovery phrase and prints it with the wallet v4R2 address it controls.

The phrase is only printed to a terminal unless --force is given.
Store it as SENDER_WALLET_SEED.`,
		Run: func(cmd *cobra.Command, _ []string) {
			force, err := cmd.Flags().GetBool(forceFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}

			if err := runNew(os.Stdout, force || term.IsTerminal(int(os.Stdout.Fd()))); err != nil {
				log.Fatal().Err(err).Msg("Failed to generate wallet")
			}
		},
	}

	cmd.Flags().Bool(forceFlag, false, "Print the phrase even if stdout is not a terminal.")

	return cmd
}

func runNew(out io.Writer, printSecret bool) error {
	if !printSecret {
		return errors.New("refusing to print a recovery phrase to a non-terminal, use --force")
	}

	words, err := custody.NewPhrase()
	if err != nil {
		return err
	}

	keyPair, err := custody.NewService().DeriveKeyPair(words)
	if err != nil {
		return err
	}
	defer keyPair.Wipe()

	// address computation is local, no ledger needed
	resolver, err := address.NewService(nil, 0)
	if err != nil {
		return err
	}

	walletAddr, err := resolver.WalletAddress(keyPair.PublicKey)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "SENDER_WALLET_SEED=%q\n", strings.Join(words, " "))
	fmt.Fprintf(out, "wallet: %s\n", walletAddr.String())

	return nil
}
