package model

import (
	"time"
)

// DateLayout 与 TimeLayout 为 Event 日期、时间的文本格式
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Event 活动
type Event struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null;index" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Date        time.Time  `gorm:"type:date;not null;index" json:"date"`
	Time        string     `gorm:"size:8;not null" json:"time"`
	Location    string     `gorm:"size:500;not null;index" json:"location"`
	Image       string     `gorm:"size:255;not null" json:"image"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	Timestamps
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// Validate 校验必填字段
func (e *Event) Validate() error {
	f := fieldErrors{}
	f.required("title", e.Title)
	f.maxLen("title", e.Title, 255)
	f.required("description", e.Description)
	if e.Date.IsZero() {
		f["date"] = "is required"
	}
	if _, err := time.Parse(TimeLayout, e.Time); err != nil {
		f["time"] = "must be HH:MM:SS"
	}
	f.required("location", e.Location)
	f.maxLen("location", e.Location, 500)
	f.required("image", e.Image)
	f.maxLen("image", e.Image, 255)
	return f.err("event")
}

// EventSummary 列表视图
type EventSummary struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Summary 转换为列表视图
func (e *Event) Summary() EventSummary {
	return EventSummary{
		ID:       e.ID,
		Title:    e.Title,
		Image:    e.Image,
		Date:     e.Date.Format(DateLayout),
		Location: e.Location,
	}
}
