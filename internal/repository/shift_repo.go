package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"shiftdesk/backend/internal/model"
	pkgerrors "shiftdesk/backend/pkg/errors"
)

// 班次列表筛选
const (
	ShiftStatusUpcoming = "upcoming"
	ShiftStatusPast     = "past"
	ShiftStatusAll      = "all"
)

// ShiftRepository 班次数据访问接口
//
// 名单与考勤随班次整行读写；Update 是唯一的提交点，按 version 做比较并交换。
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	ListByOwner(ctx context.Context, ownerID, status string, now time.Time) ([]model.Shift, error)
	ListAvailable(ctx context.Context, now time.Time) ([]model.Shift, error)
	ListByRosterMember(ctx context.Context, employeeID string) ([]model.Shift, error)
	ListAttendanceHistory(ctx context.Context, employeeID string, from, to *time.Time) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id, deletedBy string) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) ListByOwner(ctx context.Context, ownerID, status string, now time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx).Where("owner_manager_id = ?", ownerID)
	switch status {
	case ShiftStatusUpcoming:
		db = db.Where("start_time >= ?", now).Order("start_time ASC")
	case ShiftStatusPast:
		db = db.Where("start_time < ?", now).Order("start_time DESC")
	default:
		db = db.Order("start_time ASC")
	}
	if err := db.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// ListAvailable 尚未开始且仍有名额的班次
func (r *shiftRepo) ListAvailable(ctx context.Context, now time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("start_time >= ? AND slots_available > 0", now).
		Order("start_time ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

// ListByRosterMember 名单中包含该员工的全部班次（PostgreSQL jsonb 包含查询）
func (r *shiftRepo) ListByRosterMember(ctx context.Context, employeeID string) ([]model.Shift, error) {
	member, err := json.Marshal([]string{employeeID})
	if err != nil {
		return nil, err
	}
	var shifts []model.Shift
	err = r.db.WithContext(ctx).
		Where("accepted_employees @> ?::jsonb", string(member)).
		Order("start_time ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

// ListAttendanceHistory 员工在名单中且有考勤记录的班次，按开始时间倒序，区间两端均包含
func (r *shiftRepo) ListAttendanceHistory(ctx context.Context, employeeID string, from, to *time.Time) ([]model.Shift, error) {
	member, err := json.Marshal([]string{employeeID})
	if err != nil {
		return nil, err
	}
	record, err := json.Marshal([]map[string]string{{"employee_id": employeeID}})
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx).
		Where("accepted_employees @> ?::jsonb", string(member)).
		Where("attendance @> ?::jsonb", string(record))
	if from != nil {
		db = db.Where("start_time >= ?", *from)
	}
	if to != nil {
		db = db.Where("start_time <= ?", *to)
	}

	var shifts []model.Shift
	if err := db.Order("start_time DESC").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// Update 整行提交班次快照；version 不匹配时返回 ErrOptimisticLock，调用方应重新加载后再校验
func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	oldVersion := shift.Version
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND version = ?", shift.ShiftID, oldVersion).
		Updates(map[string]interface{}{
			"title":              shift.Title,
			"start_time":         shift.StartTime,
			"end_time":           shift.EndTime,
			"slots_available":    shift.SlotsAvailable,
			"accepted_employees": shift.AcceptedEmployees,
			"attendance":         shift.Attendance,
			"notes":              shift.Notes,
			"updated_by":         shift.UpdatedBy,
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version = oldVersion + 1
	return nil
}

func (r *shiftRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Shift{}).
			Where("shift_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		result := tx.Where("shift_id = ?", id).Delete(&model.Shift{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
