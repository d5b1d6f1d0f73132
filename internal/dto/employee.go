package dto

// ── 员工管理 DTO ──

// EmployeeListRequest 员工列表查询参数
type EmployeeListRequest struct {
	Role string `form:"role" binding:"omitempty,oneof=manager employee"`
}

// CreateEmployeeRequest 管理员创建账号请求
type CreateEmployeeRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role"     binding:"omitempty,oneof=manager employee"`
}

// UpdateEmployeeRequest 更新账号请求
type UpdateEmployeeRequest struct {
	Username *string `json:"username" binding:"omitempty,min=2,max=50"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Role     *string `json:"role"     binding:"omitempty,oneof=manager employee"`
}

// ImportEmployeeResponse 批量导入员工响应
type ImportEmployeeResponse struct {
	Total   int                   `json:"total"`
	Success int                   `json:"success"`
	Failed  int                   `json:"failed"`
	Created []ImportedEmployee    `json:"created,omitempty"`
	Errors  []ImportEmployeeError `json:"errors,omitempty"`
}

// ImportedEmployee 导入成功的账号及其临时密码（仅在导入响应中返回一次）
type ImportedEmployee struct {
	Row          int    `json:"row"`
	ID           string `json:"id"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportEmployeeError 导入错误详情
type ImportEmployeeError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
