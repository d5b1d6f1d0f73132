package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/internal/roster"
)

// ── 员工管理业务错误 ──

var (
	ErrUserSelfModify = errors.New("不能修改自己的账号")
	ErrUserSelfDelete = errors.New("不能删除自己")
)

// EmployeeService 员工账号管理业务接口
type EmployeeService interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest, callerID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.UserResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest, callerID string) (*dto.UserResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	ParseImportFile(reader io.Reader) ([]ImportEmployeeRow, error)
	ImportEmployees(ctx context.Context, rows []ImportEmployeeRow, callerID string) (*dto.ImportEmployeeResponse, error)
}

// ImportEmployeeRow Excel 导入解析后的单行数据
type ImportEmployeeRow struct {
	Row      int
	Username string
	Email    string
	Role     string
}

type employeeService struct {
	repo    *repository.Repository
	mutator shiftMutator
	logger  *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, maxRetries int, logger *zap.Logger) EmployeeService {
	return &employeeService{
		repo:    repo,
		mutator: newShiftMutator(maxRetries, logger),
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest, callerID string) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if err := ensureEmailFree(ctx, s.repo, email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleEmployee
	}

	user := &model.User{
		Username:       strings.TrimSpace(req.Username),
		Email:          email,
		PasswordHash:   string(hash),
		Role:           role,
		VersionedModel: model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建账号失败", zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *employeeService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *employeeService) List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx, req.Role)
	if err != nil {
		s.logger.Error("列出账号失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *employeeService) Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrUserSelfModify
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// 仅更新非 nil 字段
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if err := ensureEmailFree(ctx, s.repo, email, id); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新账号失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除账号，并在同一事务中将其移出所有班次名单（不恢复名额，保留考勤记录）
func (s *employeeService) Delete(ctx context.Context, id, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	purged := 0
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		shifts, err := tx.Shift.ListByRosterMember(ctx, id)
		if err != nil {
			return fmt.Errorf("查询所在班次失败: %w", err)
		}
		for _, sh := range shifts {
			changed := false
			_, err := s.mutator.mutate(ctx, tx, sh.ShiftID, func(shift *model.Shift) error {
				changed = roster.Purge(shift, id)
				if !changed {
					return errNoChange
				}
				return nil
			})
			if err != nil && !errors.Is(err, roster.ErrShiftNotFound) {
				return fmt.Errorf("移出班次 %s 失败: %w", sh.ShiftID, err)
			}
			if err == nil && changed {
				purged++
			}
		}
		return tx.User.Delete(ctx, id, callerID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("删除账号失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除账号",
		zap.String("id", id),
		zap.String("caller_id", callerID),
		zap.Int("purged_shifts", purged),
	)
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

// Excel 行不经过 gin 绑定，单独校验
var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（用户名/邮箱）")
)

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *employeeService) ParseImportFile(reader io.Reader) ([]ImportEmployeeRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportEmployeeRow
	for i := 1; i < len(excelRows); i++ {
		item := ImportEmployeeRow{
			Row:      i + 1,
			Username: cell(excelRows[i], "username"),
			Email:    cell(excelRows[i], "email"),
			Role:     strings.ToLower(cell(excelRows[i], "role")),
		}

		// 跳过全空行
		if item.Username == "" && item.Email == "" && item.Role == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"username": -1,
		"email":    -1,
		"role":     -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch {
		case lower == "用户名" || lower == "姓名" || lower == "username":
			idx["username"] = i
		case lower == "邮箱" || lower == "email":
			idx["email"] = i
		case lower == "角色" || lower == "role":
			idx["role"] = i
		}
	}
	return idx
}

// ────────────────────── ImportEmployees ──────────────────────

func (s *employeeService) ImportEmployees(ctx context.Context, rows []ImportEmployeeRow, callerID string) (*dto.ImportEmployeeResponse, error) {
	resp := &dto.ImportEmployeeResponse{Total: len(rows)}

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportEmployeeError{Row: row, Reason: reason})
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row      ImportEmployeeRow
		email    string
		role     string
		password string
		hash     []byte
	}
	var validRows []validatedRow
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row.Username == "" || row.Email == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		email := normalizeEmail(row.Email)
		if err := validate.Var(email, "required,email"); err != nil {
			fail(row.Row, fmt.Sprintf("邮箱格式无效: %s", row.Email))
			continue
		}
		role := row.Role
		switch role {
		case "":
			role = model.RoleEmployee
		case model.RoleEmployee, model.RoleManager:
		default:
			fail(row.Row, fmt.Sprintf("角色无效: %s", row.Role))
			continue
		}
		if seen[email] {
			fail(row.Row, fmt.Sprintf("文件内邮箱重复: %s", email))
			continue
		}
		if err := ensureEmailFree(ctx, s.repo, email, ""); err != nil {
			if errors.Is(err, ErrEmailExists) {
				fail(row.Row, fmt.Sprintf("邮箱已存在: %s", email))
				continue
			}
			return nil, err
		}

		password, err := generateTempPassword(10)
		if err != nil {
			s.logger.Error("生成临时密码失败", zap.Error(err))
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		seen[email] = true
		validRows = append(validRows, validatedRow{row: row, email: email, role: role, password: password, hash: hash})
	}

	if len(validRows) == 0 {
		return resp, nil
	}

	// 第二阶段：在事务中创建所有通过校验的账号，任一写入失败全部回滚
	var created []dto.ImportedEmployee
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, vr := range validRows {
			user := &model.User{
				Username:       vr.row.Username,
				Email:          vr.email,
				PasswordHash:   string(vr.hash),
				Role:           vr.role,
				VersionedModel: model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
			}
			if err := tx.User.Create(ctx, user); err != nil {
				s.logger.Error("导入账号写入失败，事务回滚", zap.Int("row", vr.row.Row), zap.Error(err))
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
			created = append(created, dto.ImportedEmployee{
				Row:          vr.row.Row,
				ID:           user.UserID,
				Email:        user.Email,
				TempPassword: vr.password,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Success = len(created)
	resp.Created = created
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *employeeService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询账号失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
