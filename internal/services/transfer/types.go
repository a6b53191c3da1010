package transfer

import (
	"github.com/shopspring/decimal"
)

// SuccessCode is the coarse result of a transfer.
type SuccessCode string

const (
	Successful SuccessCode = "SUCCESSFUL"
	Failed     SuccessCode = "FAILED"
)

// Command is one transfer request. All fields are required and Amount must
// be positive; the HTTP layer rejects anything else before it gets here.
type Command struct {
	SenderID       string
	RecipientID    string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// Outcome is what every path out of the service yields.
type Outcome struct {
	SuccessCode SuccessCode `json:"successCode"`
	Message     string      `json:"message"`
}

// Config holds configuration for transfer processing
type Config struct {
	// RejectSelfTransfer fails transfers whose sender and recipient match.
	// When false they are processed as a recorded net no-op.
	RejectSelfTransfer bool
}

func succeeded(message string) Outcome {
	return Outcome{SuccessCode: Successful, Message: message}
}

func failed(message string) Outcome {
	return Outcome{SuccessCode: Failed, Message: message}
}

// FallbackOutcome is returned when the backend cannot process a transfer.
func FallbackOutcome() Outcome {
	return failed(MessageProcessingFailed)
}
