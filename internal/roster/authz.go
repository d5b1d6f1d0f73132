package roster

import "shiftdesk/backend/internal/model"

// Authorizer 管理员侧操作的授权能力：调用方能否变更该班次。
//
// 身份认证由 JWT 中间件完成，这里只做业务层的归属判断。
type Authorizer interface {
	CanMutate(shift *model.Shift) bool
}

// OwnerAuthorizer 仅允许班次创建者变更
type OwnerAuthorizer struct {
	ManagerID string
}

// CanMutate 实现 Authorizer
func (a OwnerAuthorizer) CanMutate(shift *model.Shift) bool {
	return a.ManagerID != "" && shift.OwnerManagerID == a.ManagerID
}

// AuthorizerFunc 函数适配器
type AuthorizerFunc func(shift *model.Shift) bool

// CanMutate 实现 Authorizer
func (f AuthorizerFunc) CanMutate(shift *model.Shift) bool { return f(shift) }

// Authorize 归属校验；authz 为 nil 视为无权限
func Authorize(authz Authorizer, shift *model.Shift) error {
	if authz == nil || !authz.CanMutate(shift) {
		return ErrForbidden
	}
	return nil
}
