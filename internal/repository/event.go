package repository

import (
	"context"
	"time"

	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
)

// EventRepository 活动仓储。领域查询排除已软删除的活动。
type EventRepository struct {
	*Repository[model.Event, uint]
}

// NewEventRepository 创建活动仓储
func NewEventRepository(s *database.Session) *EventRepository {
	return &EventRepository{Repository: New[model.Event, uint](s)}
}

// Search 在标题、描述、地点中模糊匹配，日期倒序
func (r *EventRepository) Search(ctx context.Context, term string, limit, offset int) ([]model.Event, error) {
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	query := r.db(ctx).Scopes(notDeleted, page).Order("date DESC").Order("id DESC")
	if term != "" {
		query = query.Scopes(containsAny(term, "title", "description", "location"))
	}

	var out []model.Event
	return out, mapError(query.Find(&out).Error)
}

// FindByDateRange 日期闭区间 [start, end] 内的活动，日期升序；limit 为 0 表示不限制
func (r *EventRepository) FindByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]model.Event, error) {
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	var out []model.Event
	err = r.db(ctx).Scopes(notDeleted, page).
		Where("date >= ? AND date <= ?", startOfDay(start), startOfDay(end)).
		Order("date ASC").Order("id ASC").
		Find(&out).Error
	return out, mapError(err)
}

// FindUpcoming 从 now 所在日期起的活动，日期升序；limit 为 0 表示不限制
func (r *EventRepository) FindUpcoming(ctx context.Context, now time.Time, limit int) ([]model.Event, error) {
	page, err := Paginate(limit, 0)
	if err != nil {
		return nil, err
	}

	var out []model.Event
	err = r.db(ctx).Scopes(notDeleted, page).
		Where("date >= ?", startOfDay(now)).
		Order("date ASC").Order("id ASC").
		Find(&out).Error
	return out, mapError(err)
}

// FindByLocation 地点模糊匹配（通配符按字面量处理），日期倒序；limit 为 0 表示不限制
func (r *EventRepository) FindByLocation(ctx context.Context, location string, limit, offset int) ([]model.Event, error) {
	page, err := Paginate(limit, offset)
	if err != nil {
		return nil, err
	}

	var out []model.Event
	err = r.db(ctx).Scopes(notDeleted, containsAny(location, "location"), page).
		Order("date DESC").Order("id DESC").
		Find(&out).Error
	return out, mapError(err)
}

// startOfDay 截断到 UTC 零点，与 date 列存储值对齐
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
