package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为唯一索引冲突错误
// - MySQL 1062: Duplicate entry 'xxx' for key 'yyy'
// - SQLite: UNIQUE constraint failed: table.column
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isNotFound 判断是否为记录不存在
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// normalizePage 分页参数兜底
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
