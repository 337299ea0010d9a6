package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/labinventory/internal/application/usage"
	"github.com/xiebiao/labinventory/internal/interface/http/dto"
	"github.com/xiebiao/labinventory/internal/interface/http/middleware"
	"github.com/xiebiao/labinventory/pkg/response"
)

// RecordHandler 使用记录HTTP处理器
type RecordHandler struct {
	updateUseCase *usage.UpdateUsageUseCase
	deleteUseCase *usage.DeleteUsageUseCase
}

// NewRecordHandler 创建处理器
func NewRecordHandler(updateUseCase *usage.UpdateUsageUseCase, deleteUseCase *usage.DeleteUsageUseCase) *RecordHandler {
	return &RecordHandler{updateUseCase: updateUseCase, deleteUseCase: deleteUseCase}
}

// Update 修改使用记录
// @Summary      修改使用记录
// @Description  修改使用量时库存按差值调整，余量重新计算
// @Tags         使用记录
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int    true "记录ID"
// @Param        request body object true "需要修改的字段"
// @Success      200 {object} response.Response{data=usage.UsageResponse}
// @Router       /api/v1/records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UsageRequest
	if err := dto.DecodeAliased(c.Request.Body, &req); err != nil {
		response.Error(c, err)
		return
	}
	patch, err := req.Patch()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), usage.UpdateUsageRequest{
		RecordID: id,
		Patch:    patch,
		UserID:   middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除使用记录并归还库存
// @Summary      删除使用记录
// @Tags         使用记录
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "记录ID"
// @Success      200 {object} response.Response{data=usage.DeleteUsageResponse}
// @Router       /api/v1/records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.deleteUseCase.Execute(c.Request.Context(), usage.DeleteUsageRequest{
		RecordID: id,
		UserID:   middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
