package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// JournalHandler handles journal entry requests.
type JournalHandler struct {
	journalService services.JournalServicer
	auditService   services.AuditServicer
	cal            *timeutil.Calendar
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalService services.JournalServicer, auditService services.AuditServicer, cal *timeutil.Calendar) *JournalHandler {
	return &JournalHandler{journalService: journalService, auditService: auditService, cal: cal}
}

// JournalRequest is the payload for creating or replacing an entry.
type JournalRequest struct {
	Title   string `json:"title" binding:"required,max=200,notblank"`
	Content string `json:"content" binding:"required,notblank"`
	Date    string `json:"date"`
}

type journalQuery struct {
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
	Year  int `form:"year" binding:"omitempty,min=1970,max=9999"`
}

func (q journalQuery) filter() services.JournalFilter {
	return services.JournalFilter{Month: q.Month, Year: q.Year}
}

// GetJournals lists entries
// @Summary     List journal entries
// @Tags        journal
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month (1-12), applied together with year"
// @Param       year  query int false "Year"
// @Success     200 {array}  models.Journal "Entries, newest first"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /journal [get]
func (h *JournalHandler) GetJournals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var q journalQuery
	if !bindQuery(c, &q) {
		return
	}
	entries, err := h.journalService.GetUserJournals(userID, q.filter())
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, entries)
}

// GetStats returns entry counts
// @Summary     Journal statistics
// @Tags        journal
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month (1-12)"
// @Param       year  query int false "Year"
// @Success     200 {object} services.JournalStats "Statistics"
// @Router      /journal/stats [get]
func (h *JournalHandler) GetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var q journalQuery
	if !bindQuery(c, &q) {
		return
	}
	stats, err := h.journalService.GetStats(userID, q.filter())
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, stats)
}

// GetJournal returns one entry
// @Summary     Get a journal entry
// @Tags        journal
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Journal ID"
// @Success     200 {object} models.Journal "Entry"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /journal/{id} [get]
func (h *JournalHandler) GetJournal(c *gin.Context) {
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
	entry, err := h.journalService.GetJournalByID(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, entry)
}

// CreateJournal writes a new entry
// @Summary     Create a journal entry
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body JournalRequest true "Entry"
// @Success     201 {object} models.Journal "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /journal [post]
func (h *JournalHandler) CreateJournal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	entry, err := h.journalService.CreateJournal(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "CREATE_JOURNAL", "journal", entry.ID, c.ClientIP(), nil)
	respondCreated(c, entry, "Journal entry created successfully")
}

// UpdateJournal replaces an entry
// @Summary     Update a journal entry
// @Tags        journal
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Journal ID"
// @Param       request body JournalRequest true "Entry"
// @Success     200 {object} models.Journal "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /journal/{id} [put]
func (h *JournalHandler) UpdateJournal(c *gin.Context) {
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
	in, ok := h.bind(c)
	if !ok {
		return
	}
	entry, err := h.journalService.UpdateJournal(userID, id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, entry)
}

// DeleteJournal permanently removes an entry
// @Summary     Delete a journal entry
// @Tags        journal
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Journal ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Router      /journal/{id} [delete]
func (h *JournalHandler) DeleteJournal(c *gin.Context) {
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
	if err := h.journalService.DeleteJournal(userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "DELETE_JOURNAL", "journal", id, c.ClientIP(), nil)
	respondMessage(c, "Journal entry deleted successfully")
}

func (h *JournalHandler) bind(c *gin.Context) (services.JournalInput, bool) {
	var req JournalRequest
	if !bindJSON(c, &req) {
		return services.JournalInput{}, false
	}
	var date time.Time
	if req.Date != "" {
		d, err := h.cal.ParseFlexible(req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return services.JournalInput{}, false
		}
		date = d
	}
	return services.JournalInput{Title: req.Title, Content: req.Content, Date: date}, true
}
