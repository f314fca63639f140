package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction is a single income or expense ledger entry.
type Transaction struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	Item     string          `gorm:"not null" json:"item"`
	Amount   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Category string          `gorm:"not null" json:"category"`
	Date     time.Time       `gorm:"not null;index:idx_transactions_user_date,priority:2" json:"date"`
	Type     TransactionType `gorm:"type:varchar(10);not null" json:"type"`
}

func (t *Transaction) OwnerID() string { return t.UserID }

// Net returns the signed contribution of the entry to a balance.
func (t *Transaction) Net() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
