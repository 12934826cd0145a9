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

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs liveness probes",
		Long: `This command runs liveness probes against the local state the service depends on.
Configuration is validated and, with the redis backend, redis must answer a ping.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msgf("Failed to parse args")
			}
			livenessCmdFunc(cmd.Context(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func livenessCmdFunc(ctx context.Context, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Liveness probe failed")
	}

	err := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		return runLiveness(ctx, s, verbose)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Liveness probe failed")
	}

	if verbose {
		fmt.Fprintln(os.Stdout, "Liveness probes succeeded.")
	}
}

func runLiveness(ctx context.Context, s *api.Server, verbose bool) error {
	if s.Redis == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.Management.ProbeLivenessTimeout)
	defer cancel()

	if err := s.Redis.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping failed")
	}

	if verbose {
		log.Info().Msg("Redis is reachable")
	}

	return nil
}
