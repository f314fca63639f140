package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/pagination"
	"empire/internal/services"
)

const testTransactionID = "0190a5b4-4444-7000-8000-000000000004"

type mockTransactionService struct {
	createFn  func(userID string, in services.TransactionInput) (*models.Transaction, error)
	listFn    func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getByIDFn func(userID, id string) (*models.Transaction, error)
	updateFn  func(userID, id string, update services.TransactionUpdate) (*models.Transaction, error)
	deleteFn  func(userID, id string) error
	statsFn   func(userID string, filter services.TransactionFilter) (*services.TransactionStats, error)
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func (m *mockTransactionService) CreateTransaction(userID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return sampleTransaction(), nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, filter)
	}
	page.Defaults()
	resp := pagination.NewPageResponse([]models.Transaction{*sampleTransaction()}, page, 1)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, id string) (*models.Transaction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, id)
	}
	return sampleTransaction(), nil
}

func (m *mockTransactionService) UpdateTransaction(userID, id string, update services.TransactionUpdate) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, update)
	}
	return sampleTransaction(), nil
}

func (m *mockTransactionService) DeleteTransaction(userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockTransactionService) GetStats(userID string, filter services.TransactionFilter) (*services.TransactionStats, error) {
	if m.statsFn != nil {
		return m.statsFn(userID, filter)
	}
	return &services.TransactionStats{}, nil
}

func sampleTransaction() *models.Transaction {
	tx := &models.Transaction{
		UserID:   testUserID,
		Item:     "Salary",
		Amount:   decimal.RequireFromString("1500.25"),
		Category: "work",
		Date:     wednesday,
		Type:     models.TransactionTypeIncome,
	}
	tx.ID = testTransactionID
	return tx
}

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/budget", injectUserID(testUserID))
	g.POST("", handler.CreateTransaction)
	g.GET("", handler.GetTransactions)
	g.GET("/stats", handler.GetStats)
	g.GET("/:id", handler.GetTransactionByID)
	g.PUT("/:id", handler.UpdateTransaction)
	g.DELETE("/:id", handler.DeleteTransaction)
	return r
}

func TestBudgetHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createFn: func(_ string, in services.TransactionInput) (*models.Transaction, error) {
				got = in
				return sampleTransaction(), nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit, testCalendar()))

		rec := doRequest(r, http.MethodPost, "/budget",
			`{"item":"Salary","amount":"1500.25","category":"work","date":"2024-03-13","type":"income"}`)
		assertStatus(t, rec, http.StatusCreated)

		if !got.Amount.Equal(decimal.RequireFromString("1500.25")) {
			t.Errorf("expected amount 1500.25, got %s", got.Amount)
		}
		if !got.Date.Equal(time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", got.Date)
		}
		if len(audit.calls) != 1 || audit.calls[0].action != "CREATE_TRANSACTION" {
			t.Errorf("expected CREATE_TRANSACTION audit entry, got %v", audit.calls)
		}
	})

	t.Run("accepts a numeric amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockTransactionService{}, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/budget",
			`{"item":"Coffee","amount":4.5,"category":"food","date":"2024-03-13T08:00:00Z","type":"expense"}`)
		assertStatus(t, rec, http.StatusCreated)
	})

	t.Run("returns 400 for an unknown type", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockTransactionService{}, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/budget",
			`{"item":"Salary","amount":"10","category":"work","date":"2024-03-13","type":"transfer"}`)
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 for a missing amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockTransactionService{}, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/budget",
			`{"item":"Salary","category":"work","date":"2024-03-13","type":"income"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 400 for a malformed date", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockTransactionService{}, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/budget",
			`{"item":"Salary","amount":"10","category":"work","date":"13/03/2024","type":"income"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBudgetHandler_GetTransactions(t *testing.T) {
	t.Run("maps filters and pagination", func(t *testing.T) {
		var gotPage pagination.PageRequest
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			listFn: func(_ string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotPage, gotFilter = page, filter
				resp := pagination.NewPageResponse([]models.Transaction{}, pagination.PageRequest{Page: 2, PageSize: 5}, 0)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))

		rec := doRequest(r, http.MethodGet, "/budget?type=expense&time_range=weekly&page=2&page_size=5", "")
		assertStatus(t, rec, http.StatusOK)

		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeExpense {
			t.Error("expected expense filter")
		}
		sunday := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
		if gotFilter.FromDate == nil || !gotFilter.FromDate.Equal(sunday) {
			t.Errorf("expected week start %v, got %v", sunday, gotFilter.FromDate)
		}
	})

	t.Run("all applies no lower bound", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			listFn: func(_ string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, page, 0)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/budget?time_range=all", "")
		assertStatus(t, rec, http.StatusOK)
		if gotFilter.FromDate != nil {
			t.Errorf("expected no lower bound, got %v", gotFilter.FromDate)
		}
	})

	t.Run("returns 400 for an unknown time range", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockTransactionService{}, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/budget?time_range=hourly", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBudgetHandler_GetTransactionByID(t *testing.T) {
	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockTransactionService{}, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/budget/42", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 403 for another user's entry", func(t *testing.T) {
		svc := &mockTransactionService{
			getByIDFn: func(_, _ string) (*models.Transaction, error) { return nil, apperrors.ErrForbidden },
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/budget/"+testTransactionID, "")
		assertStatus(t, rec, http.StatusForbidden)
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
	})

	t.Run("returns 404 for a missing entry", func(t *testing.T) {
		svc := &mockTransactionService{
			getByIDFn: func(_, _ string) (*models.Transaction, error) { return nil, apperrors.ErrTransactionNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/budget/"+testTransactionID, "")
		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestBudgetHandler_UpdateTransaction(t *testing.T) {
	t.Run("sends only supplied fields", func(t *testing.T) {
		var got services.TransactionUpdate
		svc := &mockTransactionService{
			updateFn: func(_, _ string, update services.TransactionUpdate) (*models.Transaction, error) {
				got = update
				return sampleTransaction(), nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPut, "/budget/"+testTransactionID, `{"amount":"99.90","date":"2024-03-20"}`)
		assertStatus(t, rec, http.StatusOK)

		if got.Item != nil || got.Type != nil || got.Category != nil {
			t.Error("expected untouched fields to stay nil")
		}
		if got.Amount == nil || !got.Amount.Equal(decimal.RequireFromString("99.9")) {
			t.Errorf("unexpected amount %v", got.Amount)
		}
		if got.Date == nil || got.Date.Day() != 20 {
			t.Errorf("unexpected date %v", got.Date)
		}
	})
}

func TestBudgetHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 200 with a message", func(t *testing.T) {
		deleted := ""
		svc := &mockTransactionService{deleteFn: func(_, id string) error { deleted = id; return nil }}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodDelete, "/budget/"+testTransactionID, "")
		assertStatus(t, rec, http.StatusOK)
		if deleted != testTransactionID {
			t.Errorf("expected %s deleted, got %q", testTransactionID, deleted)
		}
		if result := parseJSON(t, rec); result["message"] != "Transaction deleted successfully" {
			t.Errorf("unexpected message %v", result["message"])
		}
	})
}

func TestBudgetHandler_GetStats(t *testing.T) {
	svc := &mockTransactionService{
		statsFn: func(string, services.TransactionFilter) (*services.TransactionStats, error) {
			return &services.TransactionStats{
				TotalIncome:      decimal.RequireFromString("1500.25"),
				TotalExpenses:    decimal.RequireFromString("300.10"),
				Balance:          decimal.RequireFromString("1200.15"),
				TransactionCount: 2,
			}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, testCalendar()))
	rec := doRequest(r, http.MethodGet, "/budget/stats?time_range=monthly", "")
	assertStatus(t, rec, http.StatusOK)

	data := dataOf(t, parseJSON(t, rec))
	if data["balance"] != "1200.15" {
		t.Errorf("expected balance 1200.15, got %v", data["balance"])
	}
	if data["transaction_count"] != float64(2) {
		t.Errorf("expected 2 transactions, got %v", data["transaction_count"])
	}
}
