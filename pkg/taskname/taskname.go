package taskname

const (
	// Payout tasks
	PayoutSettle = "payout:settle"
)
