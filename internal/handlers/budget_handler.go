package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/pagination"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// BudgetHandler handles ledger (income and expense) requests.
type BudgetHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	cal                *timeutil.Calendar
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, cal *timeutil.Calendar) *BudgetHandler {
	return &BudgetHandler{transactionService: transactionService, auditService: auditService, cal: cal}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Item     string                 `json:"item" binding:"required,max=200,notblank"`
	Amount   *decimal.Decimal       `json:"amount" binding:"required"`
	Category string                 `json:"category" binding:"required,max=100,notblank"`
	Date     string                 `json:"date" binding:"required"`
	Type     models.TransactionType `json:"type" binding:"required,transaction_type"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction
type UpdateTransactionRequest struct {
	Item     *string                 `json:"item" binding:"omitempty,max=200,notblank"`
	Amount   *decimal.Decimal        `json:"amount"`
	Category *string                 `json:"category" binding:"omitempty,max=100,notblank"`
	Date     *string                 `json:"date"`
	Type     *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
}

type listTransactionsQuery struct {
	pagination.PageRequest
	Type      string `form:"type" binding:"omitempty,transaction_type"`
	TimeRange string `form:"time_range" binding:"omitempty,time_range"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income or expense entry
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget [post]
func (h *BudgetHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	date, err := h.cal.ParseFlexible(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		Item:     req.Item,
		Amount:   *req.Amount,
		Category: req.Category,
		Date:     date,
		Type:     req.Type,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String()})
	respondCreated(c, transaction, "Transaction created successfully")
}

// GetTransactions returns the user's transactions
// @Summary     List transactions
// @Description Paginated ledger entries, newest date first
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       type       query string false "income or expense"
// @Param       time_range query string false "daily, weekly, monthly, annually or all"
// @Param       page       query int    false "Page number"
// @Param       page_size  query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget [get]
func (h *BudgetHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q listTransactionsQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, q.PageRequest, h.filter(q.Type, q.TimeRange))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, result)
}

// GetStats returns ledger totals
// @Summary     Ledger totals
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       time_range query string false "daily, weekly, monthly, annually or all"
// @Success     200 {object} services.TransactionStats "Totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /budget/stats [get]
func (h *BudgetHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q listTransactionsQuery
	if !bindQuery(c, &q) {
		return
	}

	stats, err := h.transactionService.GetStats(userID, h.filter(q.Type, q.TimeRange))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, stats)
}

// GetTransactionByID returns a single transaction
// @Summary     Get a transaction
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /budget/{id} [get]
func (h *BudgetHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, transaction)
}

// UpdateTransaction applies partial changes to a transaction
// @Summary     Update a transaction
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Changes"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /budget/{id} [put]
func (h *BudgetHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	update := services.TransactionUpdate{
		Item:     req.Item,
		Amount:   req.Amount,
		Category: req.Category,
		Type:     req.Type,
	}
	if req.Date != nil {
		date, err := h.cal.ParseFlexible(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		update.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", id, c.ClientIP(), nil)
	respondOK(c, transaction)
}

// DeleteTransaction permanently removes a transaction
// @Summary     Delete a transaction
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /budget/{id} [delete]
func (h *BudgetHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)
	respondMessage(c, "Transaction deleted successfully")
}

func (h *BudgetHandler) filter(txType, timeRange string) services.TransactionFilter {
	var f services.TransactionFilter
	if txType != "" {
		t := models.TransactionType(txType)
		f.Type = &t
	}
	if from, ok := h.cal.RangeStart(timeRange); ok {
		f.FromDate = &from
	}
	return f
}
