package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
)

type BuildOrderHandler struct {
	svc      *service.BuildService
	exporter *service.PickListExporter
}

func NewBuildOrderHandler(svc *service.BuildService, exporter *service.PickListExporter) *BuildOrderHandler {
	return &BuildOrderHandler{svc: svc, exporter: exporter}
}

func (h *BuildOrderHandler) Create(c *gin.Context) {
	var req service.CreateBuildOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	userID, _ := c.Get("user_id")
	order, err := h.svc.Create(c.Request.Context(), req, userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

func (h *BuildOrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.BuildOrderListParams{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
		Keyword:   c.Query("keyword"),
		Page:      page,
		Size:      size,
	}
	orders, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": orders, "total": total, "page": page, "size": size}})
}

func (h *BuildOrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

// GetDetail 订单详情，含BOM需求、可用量、可行性和完整流水
func (h *BuildOrderHandler) GetDetail(c *gin.Context) {
	detail, err := h.svc.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": detail})
}

// Reserve 预留物料。force=true时缺料仍预留能给的部分
func (h *BuildOrderHandler) Reserve(c *gin.Context) {
	var req struct {
		Force bool `json:"force"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
			return
		}
	}
	userID, _ := c.Get("user_id")
	order, err := h.svc.ReserveMaterials(c.Request.Context(), c.Param("id"), req.Force, userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

func (h *BuildOrderHandler) Start(c *gin.Context) {
	userID, _ := c.Get("user_id")
	order, err := h.svc.StartBuild(c.Request.Context(), c.Param("id"), userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

func (h *BuildOrderHandler) SubmitQC(c *gin.Context) {
	var req service.SubmitQCRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
			return
		}
	}
	userID, _ := c.Get("user_id")
	order, err := h.svc.SubmitToQC(c.Request.Context(), c.Param("id"), req, userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

// Complete 完工。成本快照失败不阻塞完工，以warnings返回
func (h *BuildOrderHandler) Complete(c *gin.Context) {
	var req service.CompleteBuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	userID, _ := c.Get("user_id")
	order, warnings, err := h.svc.CompleteBuild(c.Request.Context(), c.Param("id"), req, userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"order": order, "warnings": warnings}})
}

func (h *BuildOrderHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
			return
		}
	}
	userID, _ := c.Get("user_id")
	order, err := h.svc.CancelBuild(c.Request.Context(), c.Param("id"), req.Reason, userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

// PickList 拣料单。format=xlsx时直接下载，配置了对象存储则附带外链
func (h *BuildOrderHandler) PickList(c *gin.Context) {
	list, err := h.svc.GetPickList(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") != "xlsx" {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": list})
		return
	}

	data, err := h.exporter.Render(list)
	if err != nil {
		respondError(c, err)
		return
	}
	url, err := h.exporter.Store(c.Request.Context(), list, data)
	if err != nil {
		// 上传失败降级为内联下载
		url = ""
	}
	if url != "" {
		c.Header("X-Download-URL", url)
	}
	filename := fmt.Sprintf("picklist-%s.xlsx", list.BuildNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
