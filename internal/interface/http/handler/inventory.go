package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/labinventory/internal/application/inventory"
	"github.com/xiebiao/labinventory/pkg/response"
)

// InventoryHandler 库存概览
type InventoryHandler struct {
	dashboardUseCase *appinventory.DashboardUseCase
	lowStockUseCase  *appinventory.LowStockUseCase
}

// NewInventoryHandler 创建处理器
func NewInventoryHandler(dashboardUseCase *appinventory.DashboardUseCase, lowStockUseCase *appinventory.LowStockUseCase) *InventoryHandler {
	return &InventoryHandler{dashboardUseCase: dashboardUseCase, lowStockUseCase: lowStockUseCase}
}

// Dashboard 仪表盘
// @Summary      库存概览
// @Tags         概览
// @Produce      json
// @Success      200 {object} response.Response{data=appinventory.Dashboard}
// @Router       /api/v1/inventory/dashboard [get]
func (h *InventoryHandler) Dashboard(c *gin.Context) {
	result, err := h.dashboardUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Alerts 低库存提醒
// @Summary      低库存提醒
// @Tags         概览
// @Produce      json
// @Param        threshold query number false "剩余百分比阈值"
// @Success      200 {object} response.Response{data=appinventory.LowStockResponse}
// @Router       /api/v1/inventory/alerts [get]
func (h *InventoryHandler) Alerts(c *gin.Context) {
	threshold, ok := queryThreshold(c)
	if !ok {
		return
	}
	result, err := h.lowStockUseCase.Execute(c.Request.Context(), appinventory.LowStockRequest{Threshold: threshold})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
