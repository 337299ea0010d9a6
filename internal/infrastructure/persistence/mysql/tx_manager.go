package mysql

import (
	"context"

	"gorm.io/gorm"
)

// txKey context中事务DB的key
type txKey struct{}

// TxManager 事务管理器
// 教学要点:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB(避免全局变量)
// 3. ctx中已有事务时在该事务上开启嵌套事务(GORM使用Savepoint)
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// fn内通过ctx调用的Repository方法都在同一事务中执行;
// fn返回error时自动ROLLBACK,返回nil时自动COMMIT
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    item, err := itemRepo.LockByID(ctx, id)
//	    if err != nil {
//	        return err
//	    }
//	    if err := item.Consume(amount); err != nil {
//	        return err // 自动回滚
//	    }
//	    return itemRepo.Update(ctx, item)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return getDB(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// getDB 从context获取事务DB,如果没有则使用默认DB
// 教学要点: 所有Repository方法都必须通过它取DB,否则会脱离事务
func getDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}
