package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/pagination"
)

// transactionService handles ledger entries.
type transactionService struct {
	db        *gorm.DB
	refresher WeekRefresher
}

// NewTransactionService creates a new TransactionServicer. Every mutation
// enqueues a snapshot refresh for the affected week(s).
func NewTransactionService(db *gorm.DB, refresher WeekRefresher) TransactionServicer {
	return &transactionService{db: db, refresher: refresher}
}

// CreateTransaction records a new income or expense entry.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransaction(in.Item, in.Category, in.Amount, in.Type); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	transaction := &models.Transaction{
		UserID:   userID,
		Item:     strings.TrimSpace(in.Item),
		Amount:   in.Amount,
		Category: strings.TrimSpace(in.Category),
		Date:     in.Date.UTC(),
		Type:     in.Type,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, internal(err)
	}

	enqueue(s.refresher, userID, transaction.Date)
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest date first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := func() *gorm.DB {
		return applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)
	}

	var totalItems int64
	if err := base().Count(&totalItems).Error; err != nil {
		return nil, internal(err)
	}

	var transactions []models.Transaction
	if err := base().Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, internal(err)
	}

	result := pagination.NewPageResponse(transactions, page, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	return q
}

// GetTransactionByID retrieves a transaction owned by the user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findOwned[models.Transaction](s.db, userID, transactionID, apperrors.ErrTransactionNotFound)
}

// UpdateTransaction applies partial changes. When the date moves, both the
// old and the new week are refreshed.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	oldDate := transaction.Date

	if update.Item != nil {
		transaction.Item = strings.TrimSpace(*update.Item)
	}
	if update.Amount != nil {
		transaction.Amount = *update.Amount
	}
	if update.Category != nil {
		transaction.Category = strings.TrimSpace(*update.Category)
	}
	if update.Date != nil {
		transaction.Date = update.Date.UTC()
	}
	if update.Type != nil {
		transaction.Type = *update.Type
	}
	if err := validateTransaction(transaction.Item, transaction.Category, transaction.Amount, transaction.Type); err != nil {
		return nil, err
	}

	if err := s.db.Save(transaction).Error; err != nil {
		return nil, internal(err)
	}

	enqueue(s.refresher, userID, oldDate)
	if !oldDate.Equal(transaction.Date) {
		enqueue(s.refresher, userID, transaction.Date)
	}
	return transaction, nil
}

// DeleteTransaction permanently removes a transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(transaction).Error; err != nil {
		return internal(err)
	}
	enqueue(s.refresher, userID, transaction.Date)
	return nil
}

// GetStats totals income and expenses for the filtered range.
func (s *transactionService) GetStats(userID string, filter TransactionFilter) (*TransactionStats, error) {
	q := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)
	totals, err := sumLedger(q)
	if err != nil {
		return nil, err
	}
	return &TransactionStats{
		TotalIncome:      totals.income,
		TotalExpenses:    totals.expenses,
		Balance:          totals.income.Sub(totals.expenses),
		TransactionCount: totals.count,
	}, nil
}

func validateTransaction(item, category string, amount decimal.Decimal, txType models.TransactionType) error {
	if strings.TrimSpace(item) == "" || strings.TrimSpace(category) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "item and category are required")
	}
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
	}
	return nil
}

// ledgerTotals is the income/expense split of a set of transactions.
type ledgerTotals struct {
	income   decimal.Decimal
	expenses decimal.Decimal
	count    int64
}

func (l ledgerTotals) net() decimal.Decimal { return l.income.Sub(l.expenses) }

// sumLedger totals the transactions matched by q. Amounts are summed as
// decimals in process so the result does not depend on the store's numeric
// types.
func sumLedger(q *gorm.DB) (ledgerTotals, error) {
	var rows []struct {
		Type   models.TransactionType
		Amount decimal.Decimal
	}
	if err := q.Select("type", "amount").Find(&rows).Error; err != nil {
		return ledgerTotals{}, internal(err)
	}

	totals := ledgerTotals{income: decimal.Zero, expenses: decimal.Zero, count: int64(len(rows))}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			totals.income = totals.income.Add(r.Amount)
		case models.TransactionTypeExpense:
			totals.expenses = totals.expenses.Add(r.Amount)
		}
	}
	return totals, nil
}
