package types

import (
	"encoding/json"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
	"github.com/shopspring/decimal"
)

// PostSendTokensPayload is the body of POST /api/v1/send_tokens.
// Both fields are optional on the wire, presence is checked by the signer.
type PostSendTokensPayload struct {
	// recipient address, user-friendly or raw form
	Recipient *string `json:"recipient,omitempty"`

	// amount in whole jetton units, a JSON number or numeric string
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

func (m *PostSendTokensPayload) Validate(_ strfmt.Registry) error {
	return nil
}

// PostSendTokensResponse is returned for an accepted transfer.
type PostSendTokensResponse struct {
	Success   bool            `json:"success"`
	TxHash    string          `json:"tx_hash"`
	Note      string          `json:"note"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (m *PostSendTokensResponse) Validate(_ strfmt.Registry) error {
	if err := validate.RequiredString("tx_hash", "body", m.TxHash); err != nil {
		return err
	}
	return nil
}

// GetBalanceResponse reports a balance in whole units.
type GetBalanceResponse struct {
	Success bool        `json:"success"`
	Balance json.Number `json:"balance"`
	Address string      `json:"address"`
}

func (m *GetBalanceResponse) Validate(_ strfmt.Registry) error {
	var res []error

	if err := validate.RequiredString("balance", "body", m.Balance.String()); err != nil {
		res = append(res, err)
	}

	if err := validate.RequiredString("address", "body", m.Address); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// GetHealthResponse is the static service status.
type GetHealthResponse struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Mode      string          `json:"mode"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (m *GetHealthResponse) Validate(_ strfmt.Registry) error {
	return nil
}

// ErrorResponse is the error body. Success is omitted for authentication errors.
type ErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}
