package validation

const (
	// Amount limits
	MinTransferAmount = "0.01"
	AmountScale       = 2
)
