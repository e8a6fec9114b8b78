package model

// Image 图片元数据，path 全局唯一
type Image struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Path    string  `gorm:"size:500;not null;uniqueIndex" json:"path"`
	Caption *string `gorm:"size:1000" json:"caption"`
	Timestamps
}

// TableName 指定表名
func (Image) TableName() string { return "images" }

// Validate 校验必填字段
func (i *Image) Validate() error {
	f := fieldErrors{}
	f.required("path", i.Path)
	f.maxLen("path", i.Path, 500)
	if i.Caption != nil {
		f.maxLen("caption", *i.Caption, 1000)
	}
	return f.err("image")
}
