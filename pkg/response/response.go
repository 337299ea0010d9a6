package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
)

// Response 统一响应结构
// 设计说明：
// 1. Code是业务错误码（非HTTP状态码），方便客户端判断错误类型
// 2. Message是用户友好的提示信息
// 3. Data是业务数据，成功时返回；部分失败场景（如删除被关联记录阻止）也会携带数据
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应（Code=0表示成功）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应（自动处理AppError）
// 用法：
//
//	item, err := createItemUseCase.Execute(...)
//	if err != nil {
//	    response.Error(c, err)
//	    return
//	}
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData 错误响应并携带业务数据
// 例如删除库存物品被使用记录阻止时，返回关联记录摘要供客户端展示
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := apperrors.GetAppError(err)

	// 内部错误只写日志，不返回给客户端
	if appErr.Err != nil {
		zap.L().Error("request failed",
			zap.Int("code", appErr.Code),
			zap.String("message", appErr.Message),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(appErr.Err),
		)
	}

	c.JSON(http.StatusOK, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    data,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// File 文件下载响应（Excel导出、模板下载）
func File(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, content)
}

// =========================================
// 分页响应结构
// =========================================

// PageData 分页数据封装
type PageData struct {
	List       interface{} `json:"list"`        // 数据列表
	Total      int64       `json:"total"`       // 总记录数
	Page       int         `json:"page"`        // 当前页码
	PageSize   int         `json:"page_size"`   // 每页大小
	TotalPages int         `json:"total_pages"` // 总页数
}

// NewPageData 创建分页数据
func NewPageData(list interface{}, total int64, page, pageSize int) *PageData {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize != 0 {
			totalPages++
		}
	}

	return &PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, NewPageData(list, total, page, pageSize))
}
