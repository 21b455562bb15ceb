package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deskbot-go/internal/model"
	"deskbot-go/internal/repository"
	"deskbot-go/pkg/events"
	"deskbot-go/pkg/hash"
	"deskbot-go/pkg/kafka"
	"deskbot-go/pkg/llm"
	"deskbot-go/pkg/log"
	"deskbot-go/pkg/token"

	"gorm.io/gorm"
)

// 用户相关的业务错误。
var (
	ErrUsernameTaken      = errors.New("用户名已被占用")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
)

// TokenPair 是登录或刷新后下发的一对 token。
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 定义了用户认证与账号管理的业务逻辑接口。
type UserService interface {
	Register(username, password string) (*model.User, error)
	// Login 校验凭证并下发 token 对，成功后写登录审计并投递登录事件。
	Login(ctx context.Context, username, password, clientIP string) (*model.User, *TokenPair, error)
	// Logout 将 access token 拉黑、清空会话状态并丢弃该用户的模型会话。
	Logout(ctx context.Context, userID uint, accessToken string) error
	RefreshToken(refreshToken string) (*TokenPair, error)
	GetProfile(userID uint) (*model.User, error)
}

type userService struct {
	userRepo      repository.UserRepository
	loginLogRepo  repository.LoginLogRepository
	sessionRepo   repository.SessionRepository
	blacklistRepo repository.TokenBlacklistRepository
	jwtManager    *token.JWTManager
	llmClient     llm.Client
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, loginLogRepo repository.LoginLogRepository,
	sessionRepo repository.SessionRepository, blacklistRepo repository.TokenBlacklistRepository,
	jwtManager *token.JWTManager, llmClient llm.Client) UserService {
	return &userService{
		userRepo:      userRepo,
		loginLogRepo:  loginLogRepo,
		sessionRepo:   sessionRepo,
		blacklistRepo: blacklistRepo,
		jwtManager:    jwtManager,
		llmClient:     llmClient,
	}
}

// Register 注册一个新用户。
func (s *userService) Register(username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("用户名和密码不能为空")
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{Username: username, Password: hashed}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	log.Infof("新用户注册成功: %s (id=%d)", username, user.ID)
	return user, nil
}

// Login 实现见接口说明。审计记录写失败不影响登录结果。
func (s *userService) Login(ctx context.Context, username, password, clientIP string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.loginLogRepo.Create(&model.LoginLog{UserID: user.ID, ClientIP: clientIP}); err != nil {
		log.Errorf("写登录审计记录失败: %v", err)
	}
	ev := events.NewUserLogin(events.UserLoginEvent{
		UserID:   user.ID,
		Username: user.Username,
		ClientIP: clientIP,
	})
	if err := kafka.Produce(ctx, ev); err != nil {
		log.Errorf("投递登录事件失败: %v", err)
	}

	return user, pair, nil
}

// Logout 实现见接口说明。
func (s *userService) Logout(ctx context.Context, userID uint, accessToken string) error {
	// 拉黑剩余有效期内的 access token，黑名单条目与 token 同时过期。
	// token 已过期或解析失败时没有什么可拉黑的，跳过即可。
	if claims, err := s.jwtManager.VerifyToken(accessToken); err == nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.blacklistRepo.Add(ctx, accessToken, ttl); err != nil {
				return fmt.Errorf("注销 token 失败: %w", err)
			}
		}
	}

	if err := s.sessionRepo.Clear(ctx, token.SessionKey(accessToken)); err != nil {
		log.Errorf("清理会话状态失败: %v", err)
	}

	// 登出后不保留任何模型侧的轮次历史
	s.llmClient.ResetSessionsByPrefix(fmt.Sprintf("u%d:", userID))
	return nil
}

// RefreshToken 用 refresh token 换发一对新 token。
func (s *userService) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token 无效: %w", err)
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return s.issueTokens(user)
}

// GetProfile 返回用户基本信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	return s.userRepo.FindByID(userID)
}

func (s *userService) issueTokens(user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("生成 access token 失败: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("生成 refresh token 失败: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
