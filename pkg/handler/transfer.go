package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"payment_reconciler/models"
	"payment_reconciler/pkg/middleware"
)

func (h *Handler) SearchTransfers(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var q models.TransferQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	filters, err := h.service.ParseFilters(q)
	if err != nil {
		errorResponse(c, err)
		return
	}

	transfers, err := h.service.Search(c.Request.Context(), p, filters)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, transfers)
}

func (h *Handler) ClaimTransfer(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	res, err := h.service.Claim(c.Request.Context(), id, p.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UnclaimTransfer(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Unclaim(c.Request.Context(), p, id); err != nil {
		errorResponse(c, err)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"payment_id": id,
		"message":    "Transfer released",
	})
}

// ConfirmBatch answers 207 when only part of the batch was confirmed.
func (h *Handler) ConfirmBatch(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var req models.ConfirmBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.ConfirmBatch(c.Request.Context(), p, req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	status := http.StatusOK
	if len(res.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, res)
}

func (h *Handler) SyncTransfer(c *gin.Context) {
	id, ok := paymentIDParam(c)
	if !ok {
		return
	}

	t, err := h.service.Sync(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func paymentIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		newErrorResponse(c, http.StatusBadRequest, "invalid payment id")
		return 0, false
	}
	return id, true
}
