package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserModel GORM用户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
// 3. Repository负责两者之间的转换
type UserModel struct {
	ID          uint           `gorm:"primaryKey"`
	Username    string         `gorm:"uniqueIndex;size:64;not null;comment:用户名"`
	Password    string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	DisplayName string         `gorm:"size:50;not null;comment:显示名称"`
	Active      bool           `gorm:"not null;default:true;comment:是否启用"`
	LastLoginAt *time.Time     `gorm:"comment:最近登录时间"`
	CreatedAt   time.Time      `gorm:"comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// StorageItemModel GORM库存物品模型
// 设计说明:
// 1. 库存使用decimal(20,6)存储，避免浮点误差累积
// 2. 产品名唯一索引，并发创建同名物品时由数据库兜底
// 3. 没有DeletedAt，删除是物理删除，删除后产品名可以重新使用
type StorageItemModel struct {
	ID                 uint            `gorm:"primaryKey"`
	Category           string          `gorm:"index;size:100;not null;comment:类型"`
	ProductName        string          `gorm:"uniqueIndex;size:200;not null;comment:产品名"`
	QuantityDescriptor string          `gorm:"size:100;not null;comment:数量及数量单位"`
	Location           string          `gorm:"index;size:200;not null;comment:存放地"`
	CASNumber          string          `gorm:"column:cas_number;index;size:50;comment:CAS号"`
	CurrentStock       decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0;comment:当前库存量"`
	Unit               string          `gorm:"size:20;not null;default:'g';comment:单位"`
	CreatedAt          time.Time       `gorm:"index;comment:创建时间"`
	UpdatedAt          time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (StorageItemModel) TableName() string {
	return "storage_items"
}

// UsageRecordModel GORM使用记录模型
// 教学要点:
// 1. 类型/产品名/规格/存放地/CAS号是登记时的快照，不随物品变化
// 2. StorageID可以为NULL(历史导入的记录)
// 3. (使用人,日期)和(产品名,日期)两个复合索引支撑按人、按产品的统计查询
type UsageRecordModel struct {
	ID                 uint            `gorm:"primaryKey"`
	StorageID          *uint           `gorm:"index;comment:库存物品ID"`
	UserID             *uint           `gorm:"index;comment:操作账号ID"`
	Category           string          `gorm:"size:100;comment:类型(快照)"`
	ProductName        string          `gorm:"index:idx_product_date,priority:1;size:200;not null;comment:产品名(快照)"`
	QuantityDescriptor string          `gorm:"size:100;comment:数量及数量单位(快照)"`
	Location           string          `gorm:"size:200;comment:存放地(快照)"`
	CASNumber          string          `gorm:"column:cas_number;size:50;comment:CAS号(快照)"`
	Person             string          `gorm:"index:idx_person_date,priority:1;size:100;not null;comment:使用人"`
	UsageDate          time.Time       `gorm:"index:idx_person_date,priority:2;index:idx_product_date,priority:2;not null;comment:使用日期"`
	Amount             decimal.Decimal `gorm:"type:decimal(20,6);not null;comment:使用量"`
	Remaining          decimal.Decimal `gorm:"type:decimal(20,6);not null;comment:余量"`
	Unit               string          `gorm:"size:20;not null;default:'g';comment:单位"`
	Notes              string          `gorm:"type:text;comment:备注"`
	CreatedAt          time.Time       `gorm:"comment:创建时间"`
	UpdatedAt          time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (UsageRecordModel) TableName() string {
	return "usage_records"
}
