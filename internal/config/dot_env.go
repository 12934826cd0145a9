package config

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
	"github/chapool/jetton-signer/internal/util"
)

var loadDotEnv sync.Once

// loadDotEnvFile populates unset env vars from DOT_ENV_FILE (default ".env") if it exists.
// Variables already present in the environment always win.
func loadDotEnvFile() {
	loadDotEnv.Do(func() {
		file := util.GetEnv("DOT_ENV_FILE", ".env")
		if file == "" {
			return
		}

		if err := gotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			log.Warn().Err(err).Str("file", file).Msg("Failed to load dot env file")
		}
	})
}
