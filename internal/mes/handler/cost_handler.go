package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
)

type CostHandler struct {
	svc *service.CostService
}

func NewCostHandler(svc *service.CostService) *CostHandler {
	return &CostHandler{svc: svc}
}

func (h *CostHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.CostListParams{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
		Page:      page,
		Size:      size,
	}
	costs, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": costs, "total": total, "page": page, "size": size}})
}

func (h *CostHandler) Get(c *gin.Context) {
	cost, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": cost})
}

func (h *CostHandler) GetByBuild(c *gin.Context) {
	cost, err := h.svc.GetByBuildOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": cost})
}

// Estimate 按BOM和当前价格测算产品成本，不落库存流水
func (h *CostHandler) Estimate(c *gin.Context) {
	var req struct {
		ProductID  string `json:"product_id" binding:"required"`
		BOMVersion string `json:"bom_version"`
		Quantity   int    `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	userID, _ := c.Get("user_id")
	cost, err := h.svc.CalculateEstimate(c.Request.Context(), req.ProductID, req.BOMVersion, req.Quantity, userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": cost})
}
