package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shiftdesk/backend/config"
	"shiftdesk/backend/internal/dto"
	"shiftdesk/backend/internal/model"
	"shiftdesk/backend/internal/repository"
	"shiftdesk/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailExists        = errors.New("邮箱已被注册")
)

// TokenBlacklist 已注销 Token 的存储（Redis 实现见 pkg/redis）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；blacklist 为 nil 时登出仅由客户端丢弃 Token
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if err := ensureEmailFree(ctx, s.repo, email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleEmployee,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("注册用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("新员工注册", zap.String("user_id", user.UserID))
	return toUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token
	accessToken, _, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:        *toUserResponse(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ── 内部辅助方法 ──

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ensureEmailFree 校验邮箱未被其他账号占用；selfID 为当前账号（更新时排除自己）
func ensureEmailFree(ctx context.Context, repo *repository.Repository, email, selfID string) error {
	existing, err := repo.User.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.UserID != selfID:
		return ErrEmailExists
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return nil
}

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
