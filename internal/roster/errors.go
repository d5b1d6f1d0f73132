package roster

import "errors"

// ── 排班/考勤业务错误 ──
//
// 每个错误对应一种前置条件失败；返回这些错误时班次不会被修改。

var (
	ErrShiftNotFound    = errors.New("班次不存在")
	ErrEmployeeNotFound = errors.New("员工不存在")
	ErrForbidden        = errors.New("无权操作该班次")
	ErrInvalidRole      = errors.New("目标账号不是员工")

	ErrAlreadyApplied   = errors.New("已申请该班次")
	ErrAlreadyAssigned  = errors.New("员工已在该班次中")
	ErrAlreadyCheckedIn = errors.New("员工已签到")

	ErrNotApplied   = errors.New("未申请该班次")
	ErrNotAccepted  = errors.New("员工未被该班次接受")
	ErrNotCheckedIn = errors.New("员工尚未签到")

	ErrNoCapacity       = errors.New("该班次已无剩余名额")
	ErrInvalidTimestamp = errors.New("时间格式无效")
	ErrInvalidRange     = errors.New("签退时间必须晚于签到时间")

	ErrInvalidShiftWindow = errors.New("班次结束时间必须晚于开始时间")
	ErrInvalidSlots       = errors.New("剩余名额不能为负数")
	ErrInvalidTitle       = errors.New("班次标题不能为空")
	ErrNotesTooLong       = errors.New("班次备注不能超过 300 字符")
)
