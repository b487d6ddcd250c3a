package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"experience_booking/internal/domain/user/model"
	"experience_booking/internal/domain/user/repository"
	"experience_booking/internal/pkg/mailer"
	"experience_booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 用户模块业务错误
var (
	ErrUserExists         = errors.New("user with this email or username already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidVerifyToken = errors.New("invalid or expired verification link")
)

// 验证 token 的有效期（与邮件文案中的 24 小时保持一致）
const verifyTokenTTL = 24 * time.Hour

// UserService 用户服务接口
type UserService interface {
	Register(ctx context.Context, username, email, password string) error
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	Login(identifier, password string) (string, *model.User, error)
	GetUser(id string) (*model.User, error)
}

// pendingRegistration 暂存在 Redis 中的注册资料，邮箱验证通过后才落库
type pendingRegistration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userService 实现
type userService struct {
	repo   repository.UserRepository
	rdb    *redis.Client
	mailer mailer.Mailer
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, rdb *redis.Client, m mailer.Mailer) UserService {
	return &userService{repo: repo, rdb: rdb, mailer: m}
}

// Register 发起注册：资料暂存 Redis 并发送验证邮件，用户记录此时还不存在
func (s *userService) Register(ctx context.Context, username, email, password string) error {
	// 1. 占用检查
	exists, err := s.repo.ExistsByEmailOrUsername(email, username)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	// 2. 生成验证 token 并暂存注册资料
	token := uuid.New().String()
	payload, err := json.Marshal(pendingRegistration{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, verifyKey(token), payload, verifyTokenTTL).Err(); err != nil {
		return err
	}

	// 3. 同步发送验证邮件：发不出去注册就失败，让用户重试
	subject, htmlBody, textBody := mailer.BuildVerificationEmail(token)
	return s.mailer.Send(email, subject, htmlBody, textBody)
}

// VerifyEmail 验证邮箱：取出暂存资料、复查占用、哈希密码并创建用户
func (s *userService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	data, err := s.rdb.Get(ctx, verifyKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidVerifyToken
		}
		return nil, err
	}

	var pending pendingRegistration
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		return nil, ErrInvalidVerifyToken
	}

	// token 等待期间可能有人抢注了同名账户，创建前复查
	exists, err := s.repo.ExistsByEmailOrUsername(pending.Email, pending.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		s.rdb.Del(ctx, verifyKey(token))
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(pending.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: pending.Username,
		Email:    pending.Email,
		Password: string(hashed),
		Role:     model.RoleUser,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.rdb.Del(ctx, verifyKey(token))
	return user, nil
}

// Login 登录：校验密码并直接签发 JWT
func (s *userService) Login(identifier, password string) (string, *model.User, error) {
	user, err := s.repo.GetByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAccountNotFound
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetUser 获取单个用户
func (s *userService) GetUser(id string) (*model.User, error) {
	return s.repo.GetByID(id)
}

func verifyKey(token string) string {
	return fmt.Sprintf("verify:%s", token)
}
