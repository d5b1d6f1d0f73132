package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shift 班次表 — 对应 shifts
//
// 班次是聚合根：排班名单（accepted_employees）与考勤台账（attendance）
// 以 jsonb 文档形式保存在同一行，所有变更通过 version 乐观锁整体提交。
type Shift struct {
	ShiftID           string           `gorm:"type:uuid;primaryKey"                    json:"shift_id"`
	Title             string           `gorm:"type:varchar(60);not null"               json:"title"`
	StartTime         time.Time        `gorm:"not null;index"                          json:"start_time"`
	EndTime           time.Time        `gorm:"not null"                                json:"end_time"`
	OwnerManagerID    string           `gorm:"type:uuid;not null;index"                json:"owner_manager_id"`
	SlotsAvailable    int              `gorm:"not null"                                json:"slots_available"` // 剩余名额，不是总容量
	AcceptedEmployees EmployeeIDList   `gorm:"type:jsonb;not null;default:'[]'"        json:"accepted_employees"`
	Attendance        AttendanceLedger `gorm:"type:jsonb;not null;default:'[]'"        json:"attendance"`
	Notes             string           `gorm:"type:varchar(300)"                       json:"notes,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// BeforeCreate 未指定主键时生成 UUID，并初始化乐观锁版本号
func (s *Shift) BeforeCreate(_ *gorm.DB) error {
	if s.ShiftID == "" {
		s.ShiftID = uuid.NewString()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}

// ── 排班名单 ──

// EmployeeIDList 已接受员工 ID 列表（有序集合，保留插入顺序用于展示）
type EmployeeIDList []string

// Scan 实现 sql.Scanner
func (l *EmployeeIDList) Scan(src interface{}) error {
	var ids []string
	if err := scanJSON(src, &ids, "EmployeeIDList"); err != nil {
		return err
	}
	*l = ids
	return nil
}

// Value 实现 driver.Valuer
func (l EmployeeIDList) Value() (driver.Value, error) {
	return valueJSON([]string(l), l == nil)
}

// IndexOf 返回员工在名单中的位置，不存在返回 -1
func (l EmployeeIDList) IndexOf(employeeID string) int {
	for i, id := range l {
		if id == employeeID {
			return i
		}
	}
	return -1
}

// Contains 员工是否在名单中
func (l EmployeeIDList) Contains(employeeID string) bool {
	return l.IndexOf(employeeID) >= 0
}

// Without 返回去掉指定员工后的新名单（不修改原切片）
func (l EmployeeIDList) Without(employeeID string) EmployeeIDList {
	out := make(EmployeeIDList, 0, len(l))
	for _, id := range l {
		if id != employeeID {
			out = append(out, id)
		}
	}
	return out
}

// ── 考勤台账 ──

// AttendanceRecord 单条考勤记录
//
// CheckOut 为 nil 表示尚未签退。历史数据中 check_out == check_in 的记录同样视为未签退。
type AttendanceRecord struct {
	EmployeeID string     `json:"employee_id"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
	TotalHours float64    `json:"total_hours"`
}

// IsOpen 记录是否仍处于签到中
func (r AttendanceRecord) IsOpen() bool {
	return r.CheckOut == nil || r.CheckOut.Equal(r.CheckIn)
}

// AttendanceLedger 班次考勤台账（按签到顺序排列）
type AttendanceLedger []AttendanceRecord

// Scan 实现 sql.Scanner
func (l *AttendanceLedger) Scan(src interface{}) error {
	var records []AttendanceRecord
	if err := scanJSON(src, &records, "AttendanceLedger"); err != nil {
		return err
	}
	*l = records
	return nil
}

// Value 实现 driver.Valuer
func (l AttendanceLedger) Value() (driver.Value, error) {
	return valueJSON([]AttendanceRecord(l), l == nil)
}

// OpenIndex 返回员工第一条未签退记录的下标，不存在返回 -1
func (l AttendanceLedger) OpenIndex(employeeID string) int {
	for i, r := range l {
		if r.EmployeeID == employeeID && r.IsOpen() {
			return i
		}
	}
	return -1
}

// FirstFor 返回员工的第一条考勤记录
func (l AttendanceLedger) FirstFor(employeeID string) (AttendanceRecord, bool) {
	for _, r := range l {
		if r.EmployeeID == employeeID {
			return r, true
		}
	}
	return AttendanceRecord{}, false
}

// Without 返回删除员工全部记录后的新台账，以及删除条数
func (l AttendanceLedger) Without(employeeID string) (AttendanceLedger, int) {
	out := make(AttendanceLedger, 0, len(l))
	removed := 0
	for _, r := range l {
		if r.EmployeeID == employeeID {
			removed++
			continue
		}
		out = append(out, r)
	}
	return out, removed
}
