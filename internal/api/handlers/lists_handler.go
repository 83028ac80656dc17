package handlers

import (
	"errors"
	"net/http"

	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/domain/lists"
	"github.com/gin-gonic/gin"
)

type ListsHandler struct {
	service lists.Service
}

func NewListsHandler(service lists.Service) *ListsHandler {
	return &ListsHandler{service: service}
}

func (h *ListsHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lists.ErrListNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
	case errors.Is(err, lists.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Errorf("List request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}

// ListLists handles GET /lists
func (h *ListsHandler) ListLists(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ls, err := h.service.ListLists(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListsToResponse(ls))
}

// CreateList handles POST /lists
func (h *ListsHandler) CreateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req, ok := bind[dto.ListRequest](c)
	if !ok {
		return
	}

	list, err := h.service.CreateList(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ListToResponse(list))
}

// UpdateList handles PUT /lists/:id
func (h *ListsHandler) UpdateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req, ok := bind[dto.ListRequest](c)
	if !ok {
		return
	}

	list, err := h.service.UpdateList(c.Request.Context(), userID, c.Param("id"), req.ToInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListToResponse(list))
}

// DeleteList handles DELETE /lists/:id
func (h *ListsHandler) DeleteList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteList(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOverall handles GET /overall, creating the record on first read.
func (h *ListsHandler) GetOverall(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	overall, err := h.service.GetOverall(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OverallToResponse(overall))
}

// PutOverall handles PUT /overall
func (h *ListsHandler) PutOverall(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	req, ok := bind[dto.OverallRequest](c)
	if !ok {
		return
	}

	overall, err := h.service.PutOverall(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OverallToResponse(overall))
}
