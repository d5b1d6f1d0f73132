// Package mq 通过 RabbitMQ topic exchange 发布与消费排班事件。
package mq

import (
	"encoding/json"
	"fmt"
	"time"
)

// 事件类型，同时作为 routing key
const (
	EventShiftApplied         = "shift.applied"
	EventShiftCancelled       = "shift.cancelled"
	EventShiftAssigned        = "shift.assigned"
	EventShiftRemoved         = "shift.removed"
	EventAttendanceCheckedIn  = "attendance.checked_in"
	EventAttendanceCheckedOut = "attendance.checked_out"
)

// Event 排班/考勤状态变更事件，在数据库提交成功后发布
type Event struct {
	Type       string    `json:"type"`
	ShiftID    string    `json:"shift_id"`
	ShiftTitle string    `json:"shift_title"`
	ShiftStart time.Time `json:"shift_start"`
	EmployeeID string    `json:"employee_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`

	// 仅考勤事件
	CheckIn    *time.Time `json:"check_in,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	TotalHours float64    `json:"total_hours,omitempty"`
}

// Encode 序列化事件
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent 反序列化事件
func DecodeEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("事件反序列化失败: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("事件缺少 type 字段")
	}
	return e, nil
}
