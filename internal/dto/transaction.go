package dto

type TransactionResponse struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Merchant  string  `json:"merchant"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category"`
	Notes     string  `json:"notes,omitempty"`
	Source    string  `json:"source,omitempty"`
	CreatedAt string  `json:"created_at"`
}
