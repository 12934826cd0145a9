package wallet

import (
	"encoding/json"

	"github.com/go-openapi/strfmt"
	"github/chapool/jetton-signer/internal/types"
)

const acceptedNote = "Jetton transfer accepted by the ledger"

// ToPostSendTokensResponse converts SendResult to PostSendTokensResponse
func (r *SendResult) ToPostSendTokensResponse() *types.PostSendTokensResponse {
	return &types.PostSendTokensResponse{
		Success:   true,
		TxHash:    r.TxHash,
		Note:      acceptedNote,
		Timestamp: strfmt.DateTime(r.Timestamp),
	}
}

// ToGetBalanceResponse converts BalanceResult to GetBalanceResponse
func (r *BalanceResult) ToGetBalanceResponse() *types.GetBalanceResponse {
	return &types.GetBalanceResponse{
		Success: true,
		Balance: json.Number(r.Balance.String()),
		Address: r.Address.String(),
	}
}
