package wallet

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/config"
	"github/chapool/jetton-signer/internal/util/command"
)

const resolveTimeout = 15 * time.Second

func newAddress() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Prints the sender wallet address",
		Long: `Derives the sender wallet address from SENDER_WALLET_SEED.

With --jetton the jetton wallet (sub-account) address is resolved through the ledger as well.`,
		Run: func(cmd *cobra.Command, _ []string) {
			jetton, err := cmd.Flags().GetBool(jettonFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}

			cfg := config.DefaultServiceConfigFromEnv()
			err = command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				return runAddress(ctx, os.Stdout, s, jetton)
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to print wallet address")
			}
		},
	}

	cmd.Flags().Bool(jettonFlag, false, "Also resolve the jetton wallet address.")

	return cmd
}

func runAddress(ctx context.Context, out io.Writer, s *api.Server, jetton bool) error {
	walletAddr, err := s.Signer.WalletAddress(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to derive wallet address")
	}

	fmt.Fprintf(out, "wallet: %s\n", walletAddr.String())
	fmt.Fprintf(out, "raw:    %s\n", walletAddr.StringRaw())

	if !jetton {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	balance, err := s.Signer.JettonBalance(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to resolve jetton wallet")
	}

	fmt.Fprintf(out, "jetton: %s (balance %s)\n", balance.Address.String(), balance.Balance.String())

	return nil
}
