package models

import "time"

// Schedule 是用户的课表，每个用户最多一个。
type Schedule struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"-"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Lessons   []Lesson  `gorm:"many2many:schedule_lessons;" json:"lessons"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 指定 Schedule 模型的表名。
func (Schedule) TableName() string {
	return "schedules"
}

// Lesson 是一节课。UserID 是创建者。
type Lesson struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Room      string    `gorm:"type:varchar(255);not null" json:"room"`
	StartTime TimeOfDay `gorm:"type:time;not null" json:"start_time"`
	EndTime   TimeOfDay `gorm:"type:time;not null" json:"end_time"`
	Day       Weekday   `gorm:"type:varchar(3);not null" json:"day"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 指定 Lesson 模型的表名。
func (Lesson) TableName() string {
	return "lessons"
}

// ScheduleLesson is a row of the schedule_lessons join table.
type ScheduleLesson struct {
	ScheduleID uint `gorm:"primaryKey;autoIncrement:false"`
	LessonID   uint `gorm:"primaryKey;autoIncrement:false"`
}

// TableName 指定 ScheduleLesson 的表名。
func (ScheduleLesson) TableName() string {
	return "schedule_lessons"
}
