package probe

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/config"
	"github/chapool/jetton-signer/internal/util/command"
)

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long: `This command runs readiness probes.
On top of the liveness probes the ledger node must answer and the sender wallet must be derivable.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msgf("Failed to parse args")
			}
			readinessCmdFunc(cmd.Context(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func readinessCmdFunc(ctx context.Context, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Readiness probe failed")
	}

	err := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		if err := runLiveness(ctx, s, verbose); err != nil {
			return err
		}
		return runReadiness(ctx, s, verbose)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Readiness probe failed")
	}

	if verbose {
		fmt.Fprintln(os.Stdout, "Readiness probes succeeded.")
	}
}

func runReadiness(ctx context.Context, s *api.Server, verbose bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Config.Management.ProbeReadinessTimeout)
	defer cancel()

	if err := s.Ledger.Ping(ctx); err != nil {
		return errors.Wrap(err, "ledger ping failed")
	}

	walletAddr, err := s.Signer.WalletAddress(ctx)
	if err != nil {
		return errors.Wrap(err, "sender wallet is not derivable")
	}

	if verbose {
		log.Info().Str("wallet", walletAddr.String()).Msg("Ledger is reachable")
	}

	return nil
}
