// Package roster 实现班次名额与考勤的状态机。
//
// 所有函数只操作调用方传入的内存快照：先完成全部前置校验，校验通过后才修改快照。
// 持久化（含乐观锁提交）由 service 层负责。
package roster

import "shiftdesk/backend/internal/model"

// Apply 员工自助申请班次
func Apply(shift *model.Shift, employeeID string) error {
	if shift.AcceptedEmployees.Contains(employeeID) {
		return ErrAlreadyApplied
	}
	if shift.SlotsAvailable <= 0 {
		return ErrNoCapacity
	}
	admit(shift, employeeID)
	return nil
}

// Cancel 员工取消申请；不处理考勤记录
func Cancel(shift *model.Shift, employeeID string) error {
	if !shift.AcceptedEmployees.Contains(employeeID) {
		return ErrNotApplied
	}
	release(shift, employeeID)
	return nil
}

// Assign 管理员指派员工，效果与 Apply 相同
func Assign(shift *model.Shift, authz Authorizer, employee *model.User) error {
	if err := Authorize(authz, shift); err != nil {
		return err
	}
	if !employee.IsEmployee() {
		return ErrInvalidRole
	}
	if shift.AcceptedEmployees.Contains(employee.UserID) {
		return ErrAlreadyAssigned
	}
	if shift.SlotsAvailable <= 0 {
		return ErrNoCapacity
	}
	admit(shift, employee.UserID)
	return nil
}

// Remove 管理员移除员工：释放名额并删除该员工在此班次的全部考勤记录。
//
// 员工不在名单中时不增加名额；其残留考勤记录（例如取消申请后保留的记录）仍会被删除。
// 返回值 changed 表示快照是否有变化，无变化时无需持久化。
func Remove(shift *model.Shift, authz Authorizer, employeeID string) (changed bool, err error) {
	if err := Authorize(authz, shift); err != nil {
		return false, err
	}
	released := false
	if shift.AcceptedEmployees.Contains(employeeID) {
		release(shift, employeeID)
		released = true
	}
	ledger, dropped := shift.Attendance.Without(employeeID)
	if dropped > 0 {
		shift.Attendance = ledger
	}
	return released || dropped > 0, nil
}

// Purge 账号删除时将员工移出名单。
//
// 与 Remove 不同，这里不恢复名额，也不删除考勤记录。
func Purge(shift *model.Shift, employeeID string) bool {
	if !shift.AcceptedEmployees.Contains(employeeID) {
		return false
	}
	shift.AcceptedEmployees = shift.AcceptedEmployees.Without(employeeID)
	return true
}

// admit 名单追加与名额扣减必须成对出现
func admit(shift *model.Shift, employeeID string) {
	shift.AcceptedEmployees = append(shift.AcceptedEmployees, employeeID)
	shift.SlotsAvailable--
}

func release(shift *model.Shift, employeeID string) {
	shift.AcceptedEmployees = shift.AcceptedEmployees.Without(employeeID)
	shift.SlotsAvailable++
}
