package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"payment_reconciler/models"
	"payment_reconciler/pkg/middleware"
)

// MyManualTransfers lists the caller's manual transfers, or the free ones
// with ?libres=true.
func (h *Handler) MyManualTransfers(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	free, _ := strconv.ParseBool(c.Query("libres"))

	list, err := h.service.ListForUser(c.Request.Context(), p.ID, free)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListManualTransfers(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	list, err := h.service.ListAll(c.Request.Context(), p)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateManualTransfer(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var input models.ManualTransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "transaction_id and bank_name are required")
		return
	}

	m, err := h.service.Create(c.Request.Context(), p, input)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) ReassignManualTransfer(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var input models.ReassignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.service.Reassign(c.Request.Context(), p, c.Param("id"), input.OwnerID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
