package models

// Location is a place a user can mark as favorite.
type Location struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
}

// TableName 指定 Location 模型的表名。
func (Location) TableName() string {
	return "locations"
}
