package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-mes/internal/mes/service"
)

// respondError 把领域错误翻译成统一响应。
// 状态机冲突和库存不足带上结构化detail，前端按detail渲染缺料清单
func respondError(c *gin.Context, err error) {
	var invalid *service.ValidationError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}

	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
		return
	}

	var illegal *service.IllegalTransitionError
	if errors.As(err, &illegal) {
		c.JSON(http.StatusConflict, gin.H{"code": 10004, "message": err.Error(), "detail": illegal})
		return
	}

	var short *service.InsufficientStockError
	if errors.As(err, &short) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 10005, "message": err.Error(), "detail": gin.H{"shortages": short.Shortages}})
		return
	}

	var conflict *service.ConcurrencyConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"code": 10006, "message": "并发冲突，请重试"})
		return
	}

	var invariant *service.InvariantViolationError
	if errors.As(err, &invariant) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50002, "message": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
}
