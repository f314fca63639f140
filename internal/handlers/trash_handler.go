package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/middleware"
	"empire/internal/models"
	"empire/internal/services"
	"empire/internal/uuid"
)

// TrashHandler handles the trash holding area.
type TrashHandler struct {
	trashService services.TrashServicer
	auditService services.AuditServicer
}

// NewTrashHandler creates a new TrashHandler.
func NewTrashHandler(trashService services.TrashServicer, auditService services.AuditServicer) *TrashHandler {
	return &TrashHandler{trashService: trashService, auditService: auditService}
}

// MoveToTrashRequest names the entity to move.
type MoveToTrashRequest struct {
	Type       models.TrashType `json:"type" binding:"required,trash_type"`
	OriginalID string           `json:"original_id" binding:"required"`
}

// EmptyTrashResponse reports how many items were removed.
type EmptyTrashResponse struct {
	Deleted int64 `json:"deleted"`
}

// MoveToTrash deletes an entity and keeps a restorable copy
// @Summary     Move to trash
// @Tags        trash
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MoveToTrashRequest true "Entity"
// @Success     201 {object} models.TrashItem "Trash item"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Router      /trash [post]
func (h *TrashHandler) MoveToTrash(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req MoveToTrashRequest
	if !bindJSON(c, &req) {
		return
	}
	if !uuid.IsValid(req.OriginalID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid original_id"))
		return
	}

	item, err := h.trashService.MoveToTrash(userID, req.Type, req.OriginalID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "MOVE_TO_TRASH", string(req.Type), req.OriginalID, c.ClientIP(), nil)
	respondCreated(c, item, "Moved to trash")
}

// ListTrash returns unexpired items
// @Summary     List trash
// @Tags        trash
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.TrashItem "Items, newest first"
// @Router      /trash [get]
func (h *TrashHandler) ListTrash(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	items, err := h.trashService.ListTrash(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, items)
}

// Restore recreates the trashed entity
// @Summary     Restore from trash
// @Tags        trash
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trash item ID"
// @Success     200 {object} models.TrashItem "Restored item"
// @Failure     404 {object} ErrorResponse "Trash item not found"
// @Failure     409 {object} ErrorResponse "Entity already exists"
// @Router      /trash/{id}/restore [post]
func (h *TrashHandler) Restore(c *gin.Context) {
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
	item, err := h.trashService.Restore(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "RESTORE_FROM_TRASH", string(item.Type), item.OriginalID, c.ClientIP(), nil)
	middleware.RespondOK(c, http.StatusOK, item, "Restored successfully")
}

// DeleteItem permanently removes one trash item
// @Summary     Delete a trash item
// @Tags        trash
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trash item ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     404 {object} ErrorResponse "Trash item not found"
// @Router      /trash/{id} [delete]
func (h *TrashHandler) DeleteItem(c *gin.Context) {
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
	if err := h.trashService.DeleteItem(userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	respondMessage(c, "Trash item deleted permanently")
}

// Empty removes every trash item of the user
// @Summary     Empty trash
// @Tags        trash
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} EmptyTrashResponse "Deleted count"
// @Router      /trash/empty [delete]
func (h *TrashHandler) Empty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	n, err := h.trashService.Empty(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "EMPTY_TRASH", "trash", "", c.ClientIP(), map[string]interface{}{"deleted": n})
	respondOK(c, EmptyTrashResponse{Deleted: n})
}
