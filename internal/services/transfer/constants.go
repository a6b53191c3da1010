package transfer

// Outcome messages returned to callers. Callers tell a duplicate submission
// from a new one by the message, both are SUCCESSFUL.
const (
	MessageProcessed         = "Payment is processed."
	MessageAlreadyProcessed  = "Payment is already processed."
	MessageSenderNotFound    = "Sender account not found."
	MessageRecipientNotFound = "Recipient account not found."
	MessageInsufficientFunds = "Insufficient balance."
	MessageSelfTransfer      = "Sender and recipient must differ."
	MessageProcessingFailed  = "Payment processing failed. Please try again later."
)

