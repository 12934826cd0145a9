package wallet

import (
	"github.com/spf13/cobra"
	"github/chapool/jetton-signer/internal/util/command"
)

const (
	forceFlag  string = "force"
	jettonFlag string = "jetton"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("wallet",
		newNew(),
		newAddress(),
	)
}
