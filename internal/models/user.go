package models

import "time"

// User 代表系统中的用户。Email 是身份标识。
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	FirstName    string     `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName     string     `gorm:"type:varchar(255);not null" json:"last_name"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null" json:"-"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	LastLogin    *time.Time `json:"-"`

	// 关联关系
	FavoriteLocations []Location `gorm:"many2many:user_favorite_locations;" json:"favorite_locations"`
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
