package api

import (
	"strings"
	"time"

	"github.com/BaSui01/eventually/internal/model"
	"github.com/BaSui01/eventually/types"
)

// =============================================================================
// 📦 通用响应
// =============================================================================

// ErrorResponse 统一错误响应
// @Description 错误响应结构
type ErrorResponse struct {
	Success   bool           `json:"success"`
	ErrorCode string         `json:"error_code" example:"NOT_FOUND"`
	Message   string         `json:"message" example:"Product with id 7 not found"`
	Detail    map[string]any `json:"detail,omitempty"`
	Path      string         `json:"path,omitempty" example:"/api/product/7"`
}

// RootInfo GET /api/ 响应
type RootInfo struct {
	Message string `json:"message" example:"Eventually API"`
	Version string `json:"version" example:"1.0.0"`
	Docs    string `json:"docs" example:"/docs"`
}

// MessageResponse 仅含消息的响应
type MessageResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// 🛒 商品
// =============================================================================

// ProductCreate 创建商品请求
type ProductCreate struct {
	Name       string  `json:"name" example:"Widget"`
	Department string  `json:"department" example:"tools"`
	Price      float64 `json:"price" example:"9.99"`
	Weight     float64 `json:"weight" example:"0.5"`
}

// Model 转换为实体，校验由实体负责
func (c ProductCreate) Model() *model.Product {
	return &model.Product{
		Name:       c.Name,
		Department: c.Department,
		Price:      c.Price,
		Weight:     c.Weight,
	}
}

// ProductUpdate 部分更新请求，只更新非 nil 字段
type ProductUpdate struct {
	Name       *string  `json:"name,omitempty"`
	Department *string  `json:"department,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
}

// Fields 返回待更新的列；校验失败时返回 VALIDATION_ERROR
func (u ProductUpdate) Fields() (map[string]any, error) {
	fields := map[string]any{}
	v := newFieldCheck()
	if u.Name != nil {
		v.text("name", *u.Name, 255)
		fields["name"] = *u.Name
	}
	if u.Department != nil {
		v.text("department", *u.Department, 255)
		fields["department"] = *u.Department
	}
	if u.Price != nil {
		v.positive("price", *u.Price)
		fields["price"] = *u.Price
	}
	if u.Weight != nil {
		v.positive("weight", *u.Weight)
		fields["weight"] = *u.Weight
	}
	if err := v.err("product"); err != nil {
		return nil, err
	}
	return fields, nil
}

// ProductResponse 商品详情
type ProductResponse struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Price      float64 `json:"price"`
	Weight     float64 `json:"weight"`
}

// NewProductResponse 由实体构造详情
func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Department: p.Department, Price: p.Price, Weight: p.Weight}
}

// ProductSummary 商品列表项
type ProductSummary = model.ProductSummary

// ProductSummaries 列表视图
func ProductSummaries(products []model.Product) []ProductSummary {
	out := make([]ProductSummary, len(products))
	for i := range products {
		out[i] = products[i].Summary()
	}
	return out
}

// =============================================================================
// 🖼️ 图片
// =============================================================================

// ImageCreate 登记图片请求
type ImageCreate struct {
	Path    string  `json:"path" example:"events/launch.png"`
	Caption *string `json:"caption,omitempty"`
}

// Model 转换为实体
func (c ImageCreate) Model() *model.Image {
	return &model.Image{Path: c.Path, Caption: c.Caption}
}

// ImageUpdate 部分更新请求
type ImageUpdate struct {
	Path    *string `json:"path,omitempty"`
	Caption *string `json:"caption,omitempty"`
}

// Fields 返回待更新的列
func (u ImageUpdate) Fields() (map[string]any, error) {
	fields := map[string]any{}
	v := newFieldCheck()
	if u.Path != nil {
		v.text("path", *u.Path, 500)
		fields["path"] = *u.Path
	}
	if u.Caption != nil {
		if len(*u.Caption) > 1000 {
			v.fail("caption", "is too long")
		}
		fields["caption"] = *u.Caption
	}
	if err := v.err("image"); err != nil {
		return nil, err
	}
	return fields, nil
}

// ImageResponse 图片详情
type ImageResponse struct {
	ID        uint      `json:"id"`
	Path      string    `json:"path"`
	Caption   *string   `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// NewImageResponse 由实体构造详情
func NewImageResponse(i *model.Image) ImageResponse {
	return ImageResponse{ID: i.ID, Path: i.Path, Caption: i.Caption, CreatedAt: i.CreatedAt}
}

// =============================================================================
// 📅 活动
// =============================================================================

// EventCreate 创建活动请求；date 为 YYYY-MM-DD，time 为 HH:MM:SS
type EventCreate struct {
	Title       string `json:"title" example:"Launch party"`
	Description string `json:"description"`
	Date        string `json:"date" example:"2026-05-01"`
	Time        string `json:"time" example:"18:30:00"`
	Location    string `json:"location" example:"Berlin"`
	Image       string `json:"image" example:"events/launch.png"`
}

// Model 解析日期并转换为实体
func (c EventCreate) Model() (*model.Event, error) {
	date, err := time.Parse(model.DateLayout, strings.TrimSpace(c.Date))
	if err != nil {
		return nil, types.NewValidationError("invalid event").
			WithDetail("date", "must be YYYY-MM-DD")
	}
	return &model.Event{
		Title:       c.Title,
		Description: c.Description,
		Date:        date,
		Time:        c.Time,
		Location:    c.Location,
		Image:       c.Image,
	}, nil
}

// EventResponse 活动详情
type EventResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Image       string `json:"image"`
}

// NewEventResponse 由实体构造详情
func NewEventResponse(e *model.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format(model.DateLayout),
		Time:        e.Time,
		Location:    e.Location,
		Image:       e.Image,
	}
}

// EventSummary 活动列表项
type EventSummary = model.EventSummary

// EventSummaries 列表视图
func EventSummaries(events []model.Event) []EventSummary {
	out := make([]EventSummary, len(events))
	for i := range events {
		out[i] = events[i].Summary()
	}
	return out
}

// =============================================================================
// 🔧 字段校验
// =============================================================================

type fieldCheck map[string]string

func newFieldCheck() fieldCheck { return fieldCheck{} }

func (f fieldCheck) fail(field, msg string) { f[field] = msg }

func (f fieldCheck) text(field, value string, maxLen int) {
	switch {
	case strings.TrimSpace(value) == "":
		f.fail(field, "must not be empty")
	case len(value) > maxLen:
		f.fail(field, "is too long")
	}
}

func (f fieldCheck) positive(field string, value float64) {
	if value <= 0 {
		f.fail(field, "must be greater than 0")
	}
}

func (f fieldCheck) err(entity string) error {
	if len(f) == 0 {
		return nil
	}
	e := types.NewValidationError("invalid " + entity + " update")
	for field, msg := range f {
		e.WithDetail(field, msg)
	}
	return e
}
