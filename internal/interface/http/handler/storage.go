package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/labinventory/internal/application/inventory"
	appstorage "github.com/xiebiao/labinventory/internal/application/storage"
	"github.com/xiebiao/labinventory/internal/application/usage"
	"github.com/xiebiao/labinventory/internal/interface/http/dto"
	"github.com/xiebiao/labinventory/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/response"
)

// StorageUseCases 库存物品相关用例
type StorageUseCases struct {
	Create       *appstorage.CreateItemUseCase
	Intake       *appstorage.IntakeUseCase
	Update       *appstorage.UpdateItemUseCase
	Restock      *appstorage.RestockUseCase
	BulkUpdate   *appstorage.BulkUpdateUseCase
	Delete       *appstorage.DeleteItemUseCase
	DeletionInfo *appstorage.DeletionInfoUseCase
	Get          *appstorage.GetItemUseCase
	List         *appstorage.ListItemsUseCase
	History      *appstorage.UsageHistoryUseCase
	Import       *appstorage.ImportUseCase
	Export       *appstorage.ExportItemsUseCase
	ExportUsage  *appstorage.ExportHistoryUseCase
	Template     *appstorage.TemplateUseCase
	RecordUsage  *usage.RecordUsageUseCase
	LowStock     *appinventory.LowStockUseCase
}

// StorageHandler 库存物品HTTP处理器
// 请求体字段支持中文列名和旧版英文名（见dto.ResolveAliases）
type StorageHandler struct {
	uc StorageUseCases
}

// NewStorageHandler 创建处理器
func NewStorageHandler(uc StorageUseCases) *StorageHandler {
	return &StorageHandler{uc: uc}
}

// List 库存列表
// @Summary      库存列表
// @Tags         库存
// @Produce      json
// @Param        page      query int    false "页码" default(1)
// @Param        page_size query int    false "每页数量" default(20)
// @Param        keyword   query string false "关键词(产品名、CAS号、存放地)"
// @Param        category  query string false "类型"
// @Param        location  query string false "存放地"
// @Param        sort_by   query string false "排序" Enums(name_asc, created_at_desc, stock_asc, stock_desc)
// @Success      200 {object} response.Response{data=response.PageData}
// @Router       /api/v1/storage [get]
func (h *StorageHandler) List(c *gin.Context) {
	result, err := h.uc.List.Execute(c.Request.Context(), listRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Items, result.Total, result.Page, result.PageSize)
}

func listRequest(c *gin.Context) appstorage.ListItemsRequest {
	return appstorage.ListItemsRequest{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		SortBy:   c.Query("sort_by"),
	}
}

// Get 物品详情
// @Summary      物品详情
// @Tags         库存
// @Produce      json
// @Param        id path int true "物品ID"
// @Success      200 {object} response.Response{data=appstorage.ItemView}
// @Failure      200 {object} response.Response "40402 物品不存在"
// @Router       /api/v1/storage/{id} [get]
func (h *StorageHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.uc.Get.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Create 新建库存物品
// @Summary      新建库存物品
// @Description  字段：类型/产品名/数量及数量单位/存放地/CAS号，也接受category、name、quantity等英文名
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body object true "物品信息"
// @Success      200 {object} response.Response{data=appstorage.ItemView}
// @Router       /api/v1/storage [post]
func (h *StorageHandler) Create(c *gin.Context) {
	var req dto.StorageItemRequest
	if err := dto.DecodeAliased(c.Request.Body, &req); err != nil {
		response.Error(c, err)
		return
	}

	in := req.CreateInput()
	item, err := h.uc.Create.Execute(c.Request.Context(), appstorage.CreateItemRequest{
		Category:           in.Category,
		ProductName:        in.ProductName,
		QuantityDescriptor: in.QuantityDescriptor,
		Location:           in.Location,
		CASNumber:          in.CASNumber,
		UserID:             middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Intake 入库：匹配到已有物品时补货，否则新建
// @Summary      入库
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body object true "物品信息"
// @Success      200 {object} response.Response{data=appstorage.IntakeResponse}
// @Router       /api/v1/storage/restock [post]
func (h *StorageHandler) Intake(c *gin.Context) {
	var req dto.StorageItemRequest
	if err := dto.DecodeAliased(c.Request.Body, &req); err != nil {
		response.Error(c, err)
		return
	}

	in := req.CreateInput()
	result, err := h.uc.Intake.Execute(c.Request.Context(), appstorage.CreateItemRequest{
		Category:           in.Category,
		ProductName:        in.ProductName,
		QuantityDescriptor: in.QuantityDescriptor,
		Location:           in.Location,
		CASNumber:          in.CASNumber,
		UserID:             middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 部分更新
// @Summary      修改库存物品
// @Description  只修改请求中出现的字段；修改规格会把库存重置为新规格数量
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int    true "物品ID"
// @Param        request body object true "需要修改的字段"
// @Success      200 {object} response.Response{data=appstorage.ItemView}
// @Router       /api/v1/storage/{id} [put]
func (h *StorageHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.StorageItemRequest
	if err := dto.DecodeAliased(c.Request.Body, &req); err != nil {
		response.Error(c, err)
		return
	}
	patch, err := req.Patch()
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.uc.Update.Execute(c.Request.Context(), appstorage.UpdateItemRequest{
		ID:     id,
		Patch:  patch,
		UserID: middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Restock 补货
// @Summary      补货
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                true "物品ID"
// @Param        request body dto.RestockRequest true "补货数量"
// @Success      200 {object} response.Response{data=appstorage.ItemView}
// @Router       /api/v1/storage/{id}/restock [post]
func (h *StorageHandler) Restock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	amount, err := req.Decimal()
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.uc.Restock.Execute(c.Request.Context(), appstorage.RestockRequest{
		ID:     id,
		Amount: amount,
		Unit:   req.Unit,
		UserID: middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// BulkUpdate 批量校正库存
// @Summary      批量校正库存
// @Description  单项失败不影响其他项，失败原因在errors中按下标返回
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BulkUpdateRequest true "校正列表"
// @Success      200 {object} response.Response{data=appstorage.BulkUpdateResponse}
// @Router       /api/v1/storage/bulk-update [post]
func (h *StorageHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.uc.BulkUpdate.Execute(c.Request.Context(), appstorage.BulkUpdateRequest{
		Updates: req.StockUpdates(),
		UserID:  middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除物品
// @Summary      删除库存物品
// @Description  存在使用记录时需要cascade=true，否则返回40007并在data中给出关联记录摘要
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  int  true  "物品ID"
// @Param        cascade query bool false "同时删除使用记录"
// @Success      200 {object} response.Response{data=appstorage.DeletionResultView}
// @Router       /api/v1/storage/{id} [delete]
func (h *StorageHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cascade, _ := strconv.ParseBool(c.DefaultQuery("cascade", "false"))

	result, err := h.uc.Delete.Execute(c.Request.Context(), appstorage.DeleteItemRequest{
		ID:      id,
		Cascade: cascade,
		UserID:  middleware.GetUserID(c),
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeHasDependencies) {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeletionInfo 删除影响分析
// @Summary      删除影响分析
// @Tags         库存
// @Produce      json
// @Param        id path int true "物品ID"
// @Success      200 {object} response.Response{data=appstorage.DeletionInfoView}
// @Router       /api/v1/storage/{id}/deletion-info [get]
func (h *StorageHandler) DeletionInfo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	info, err := h.uc.DeletionInfo.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// UsageHistory 使用记录（使用日期倒序）
// @Summary      使用记录
// @Tags         库存
// @Produce      json
// @Param        id        path  int true  "物品ID"
// @Param        page      query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=object}
// @Router       /api/v1/storage/{id}/usage-history [get]
func (h *StorageHandler) UsageHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.uc.History.Execute(c.Request.Context(), appstorage.UsageHistoryRequest{
		StorageID: id,
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"item":    result.Item,
		"records":   response.NewPageData(result.Records, result.Total, result.Page, result.PageSize),
	})
}

// ExportUsageHistory 导出使用记录
// @Summary      导出使用记录
// @Tags         Excel
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path int true "物品ID"
// @Router       /api/v1/storage/{id}/usage-history/export [get]
func (h *StorageHandler) ExportUsageHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	file, err := h.uc.ExportUsage.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// RecordUsage 登记使用
// @Summary      登记使用
// @Description  字段：使用人/使用日期/使用量/单位/备注，也接受personnel、config_date、volume_used等旧字段名
// @Tags         使用记录
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int    true "物品ID"
// @Param        request body object true "使用信息"
// @Success      200 {object} response.Response{data=usage.UsageResponse}
// @Failure      200 {object} response.Response "40001 库存不足 / 40006 单位不一致"
// @Router       /api/v1/storage/{id}/use [post]
func (h *StorageHandler) RecordUsage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UsageRequest
	if err := dto.DecodeAliased(c.Request.Body, &req); err != nil {
		response.Error(c, err)
		return
	}
	in, err := req.Input()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.uc.RecordUsage.Execute(c.Request.Context(), usage.RecordUsageRequest{
		StorageID: id,
		Person:    in.Person,
		Date:      in.Date,
		Amount:    in.Amount,
		Unit:      in.Unit,
		Notes:     in.Notes,
		UserID:    middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// LowStock 低库存物品
// @Summary      低库存物品
// @Tags         库存
// @Produce      json
// @Param        threshold query number false "剩余百分比阈值，默认取配置"
// @Success      200 {object} response.Response{data=appinventory.LowStockResponse}
// @Router       /api/v1/storage/low-stock [get]
func (h *StorageHandler) LowStock(c *gin.Context) {
	threshold, ok := queryThreshold(c)
	if !ok {
		return
	}
	result, err := h.uc.LowStock.Execute(c.Request.Context(), appinventory.LowStockRequest{Threshold: threshold})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// =========================================
// Excel
// =========================================

// Import 导入Excel
// @Summary      导入库存
// @Description  每行单独创建，重复或非法的行在errors中按行号报告
// @Tags         Excel
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "xlsx文件"
// @Success      200 {object} response.Response{data=appstorage.ImportResponse}
// @Router       /api/v1/storage/import [post]
func (h *StorageHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "请上传xlsx文件")
		return
	}
	f, err := header.Open()
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "读取上传文件失败"))
		return
	}
	defer f.Close()

	result, err := h.uc.Import.Execute(c.Request.Context(), appstorage.ImportRequest{
		File:   f,
		UserID: middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Export 导出库存清单，筛选条件与列表相同
// @Summary      导出库存
// @Tags         Excel
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router       /api/v1/storage/export [get]
func (h *StorageHandler) Export(c *gin.Context) {
	file, err := h.uc.Export.Execute(c.Request.Context(), listRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// Template 下载导入模板
// @Summary      导入模板
// @Tags         Excel
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router       /api/v1/storage/template [get]
func (h *StorageHandler) Template(c *gin.Context) {
	file, err := h.uc.Template.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}
