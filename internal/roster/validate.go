package roster

import (
	"strings"
	"unicode/utf8"

	"shiftdesk/backend/internal/model"
)

const maxNotesLength = 300

// ValidateShift 校验班次基本字段，创建与更新时都会调用
func ValidateShift(shift *model.Shift) error {
	if strings.TrimSpace(shift.Title) == "" {
		return ErrInvalidTitle
	}
	if !shift.EndTime.After(shift.StartTime) {
		return ErrInvalidShiftWindow
	}
	if shift.SlotsAvailable < 0 {
		return ErrInvalidSlots
	}
	if utf8.RuneCountInString(shift.Notes) > maxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// Capacity 名额守恒量：剩余名额 + 名单人数。
// 除账号删除清理外，任何名单变更前后该值保持不变。
func Capacity(shift *model.Shift) int {
	return shift.SlotsAvailable + len(shift.AcceptedEmployees)
}
