package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/labinventory/pkg/errors"
	"github.com/xiebiao/labinventory/pkg/precision"
	"github.com/xiebiao/labinventory/pkg/response"
)

// pathID 解析路径中的:id，非法时直接写错误响应
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的ID: "+c.Param("id"))
		return 0, false
	}
	return uint(id), true
}

// queryInt 可选整数参数，缺失或非法时返回默认值
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// queryThreshold 可选的低库存阈值，缺失返回nil
func queryThreshold(c *gin.Context) (*decimal.Decimal, bool) {
	raw := c.Query("threshold")
	if raw == "" {
		return nil, true
	}
	d, err := precision.ParseStrict(raw)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的阈值: "+raw)
		return nil, false
	}
	return &d, true
}

// bindError 参数绑定失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
}
