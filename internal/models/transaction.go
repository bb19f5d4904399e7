package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionCategory string

const (
	CategoryFood          TransactionCategory = "food"
	CategoryTransport     TransactionCategory = "transport"
	CategoryUtilities     TransactionCategory = "utilities"
	CategoryShopping      TransactionCategory = "shopping"
	CategoryEntertainment TransactionCategory = "entertainment"
	CategoryHealthcare    TransactionCategory = "healthcare"
	CategoryEducation     TransactionCategory = "education"
	CategorySubscriptions TransactionCategory = "subscriptions"
	CategoryOther         TransactionCategory = "other"
)

type Transaction struct {
	ID        uuid.UUID           `db:"id"`
	UserID    uuid.UUID           `db:"user_id"`
	Date      time.Time           `db:"date"`
	Merchant  string              `db:"merchant"`
	Amount    decimal.Decimal     `db:"amount"`
	Currency  string              `db:"currency"`
	Category  TransactionCategory `db:"category"`
	Notes     string              `db:"notes"`
	Source    string              `db:"source"`
	CreatedAt time.Time           `db:"created_at"`
	UpdatedAt time.Time           `db:"updated_at"`
}
