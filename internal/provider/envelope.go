package provider

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// Command names on the wire.
const (
	CmdBalance       = "balance"
	CmdChangeBalance = "changebalance"
	CmdCancel        = "cancel"
)

// Transaction types for changebalance.
const (
	TxTypeBet        = "BET"
	TxTypeWin        = "WIN"
	TxTypeAdjustment = "ADJUSTMENT"
)

// CallbackEnvelope is the inbound webhook body.
type CallbackEnvelope struct {
	Command          string          `json:"command"`
	RequestTimestamp string          `json:"request_timestamp"`
	Hash             string          `json:"hash"`
	Data             json.RawMessage `json:"data"`
}

// callbackData is the union of all data fields across commands.
type callbackData struct {
	UserID          string `json:"user_id"`
	TransactionID   string `json:"transaction_id"`
	TransactionType string `json:"transaction_type"`
	Amount          string `json:"amount"` // signed decimal string in currency units
	RoundID         string `json:"round_id"`
	Category        string `json:"category"`
	CurrencyCode    string `json:"currency_code"`
}

// Command is the closed set of decoded provider commands. Decoding into a
// tagged sum keeps the dispatcher exhaustive; an unknown command string is
// rejected at decode time, never routed.
type Command interface {
	isCommand()
}

// BalanceCommand is a read-only balance query.
type BalanceCommand struct {
	AccountID uuid.UUID
	Currency  string
}

// ChangeBalanceCommand applies a stake, payout, or adjustment.
type ChangeBalanceCommand struct {
	AccountID       uuid.UUID
	TransactionID   string
	TransactionType string
	Amount          int64 // signed minor units; sign already checked against type
	RoundID         string
	Category        string
	Currency        string
}

// CancelCommand reverses a previously applied transaction.
type CancelCommand struct {
	AccountID     uuid.UUID
	TransactionID string
}

func (BalanceCommand) isCommand()       {}
func (ChangeBalanceCommand) isCommand() {}
func (CancelCommand) isCommand()        {}

// DecodeCommand turns a verified envelope into a typed command.
// For changebalance the amount's sign and the explicit transaction_type are
// both supplied and must agree (BET negative, WIN positive); a mismatch is
// InconsistentOperation, never silently corrected.
func DecodeCommand(env *CallbackEnvelope) (Command, error) {
	var data callbackData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, domain.ErrValidation("malformed data payload")
		}
	}

	accountID, err := uuid.Parse(data.UserID)
	if err != nil {
		return nil, domain.ErrValidation("invalid user_id")
	}

	switch env.Command {
	case CmdBalance:
		return BalanceCommand{AccountID: accountID, Currency: data.CurrencyCode}, nil

	case CmdChangeBalance:
		if data.TransactionID == "" {
			return nil, domain.ErrValidation("missing transaction_id")
		}
		amount, err := ParseDecimalToCents(data.Amount)
		if err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("invalid amount: %v", err))
		}
		if err := checkTypeSignAgreement(data.TransactionType, amount); err != nil {
			return nil, err
		}
		return ChangeBalanceCommand{
			AccountID:       accountID,
			TransactionID:   data.TransactionID,
			TransactionType: data.TransactionType,
			Amount:          amount,
			RoundID:         data.RoundID,
			Category:        data.Category,
			Currency:        data.CurrencyCode,
		}, nil

	case CmdCancel:
		if data.TransactionID == "" {
			return nil, domain.ErrValidation("missing transaction_id")
		}
		return CancelCommand{AccountID: accountID, TransactionID: data.TransactionID}, nil

	default:
		return nil, domain.ErrUnsupportedCommand(env.Command)
	}
}

func checkTypeSignAgreement(txType string, amount int64) error {
	switch txType {
	case TxTypeBet:
		if amount >= 0 {
			return domain.ErrInconsistentOperation("BET requires a negative amount")
		}
	case TxTypeWin:
		if amount <= 0 {
			return domain.ErrInconsistentOperation("WIN requires a positive amount")
		}
	case TxTypeAdjustment:
		if amount == 0 {
			return domain.ErrInconsistentOperation("ADJUSTMENT requires a non-zero amount")
		}
	default:
		return domain.ErrValidation(fmt.Sprintf("unknown transaction_type %q", txType))
	}
	return nil
}

// ResponseEnvelope is the outbound body. The provider contract expects HTTP
// 200 with in-band OK/ERROR status.
type ResponseEnvelope struct {
	Response ResponseBody `json:"response"`
}

// ResponseBody carries the envelope status plus data or error message.
type ResponseBody struct {
	Status       string        `json:"status"`
	Data         *ResponseData `json:"data,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// ResponseData is the success payload.
type ResponseData struct {
	Balance       string `json:"balance"` // decimal string in currency units
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// OKResponse builds a success envelope.
func OKResponse(balanceCents int64, currency, transactionID string) ResponseEnvelope {
	return ResponseEnvelope{Response: ResponseBody{
		Status: "OK",
		Data: &ResponseData{
			Balance:       FormatCents(balanceCents),
			Currency:      currency,
			TransactionID: transactionID,
		},
	}}
}

// ErrorResponse builds a failure envelope from a domain error. Only the
// taxonomy message is exposed; internal causes never leak to the provider.
func ErrorResponse(err error) ResponseEnvelope {
	msg := "internal error"
	if appErr, ok := err.(*domain.AppError); ok {
		msg = appErr.Message
	}
	return ResponseEnvelope{Response: ResponseBody{
		Status:       "ERROR",
		ErrorMessage: msg,
	}}
}
