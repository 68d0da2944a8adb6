package domain

type OrderInput struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Order mirrors the gateway's order entity.
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

type PaymentConfirmation struct {
	OrderID   string
	PaymentID string
	Signature string
}
