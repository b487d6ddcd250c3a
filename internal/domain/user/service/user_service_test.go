package service

import (
	"context"
	"testing"

	"experience_booking/internal/domain/user/model"
	"experience_booking/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	// GenerateToken 需要签名密钥
	config.GlobalConfig.JWT.Secret = "test-secret-key-with-enough-length!!"
	config.GlobalConfig.JWT.Expire = 48
}

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByIdentifier(identifier string) (*model.User, error) {
	args := m.Called(identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmailOrUsername(email, username string) (bool, error) {
	args := m.Called(email, username)
	return args.Bool(0), args.Error(1)
}

// MockMailer is a mock of Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, htmlBody, textBody string) error {
	args := m.Called(to, subject, htmlBody, textBody)
	return args.Error(0)
}

func createTestUser(id, username, password string) *model.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
		Role:     model.RoleUser,
	}
	user.ID = id
	return user
}

func TestRegister(t *testing.T) {
	t.Run("Taken email or username is rejected", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockMailer := new(MockMailer)
		service := NewUserService(mockRepo, nil, mockMailer)

		mockRepo.On("ExistsByEmailOrUsername", "taken@example.com", "taken").Return(true, nil)

		err := service.Register(context.Background(), "taken", "taken@example.com", "secret123")

		assert.ErrorIs(t, err, ErrUserExists)
		mockMailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Login with username succeeds", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := NewUserService(mockRepo, nil, nil)
		user := createTestUser("user-1", "alice", "secret123")

		mockRepo.On("GetByIdentifier", "alice").Return(user, nil)

		token, result, err := service.Login("alice", "secret123")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "user-1", result.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Unknown account", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := NewUserService(mockRepo, nil, nil)

		mockRepo.On("GetByIdentifier", "ghost").Return(nil, gorm.ErrRecordNotFound)

		token, result, err := service.Login("ghost", "whatever")

		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Empty(t, token)
		assert.Nil(t, result)
	})

	t.Run("Wrong password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := NewUserService(mockRepo, nil, nil)
		user := createTestUser("user-1", "alice", "secret123")

		mockRepo.On("GetByIdentifier", "alice").Return(user, nil)

		token, result, err := service.Login("alice", "wrongpass")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, token)
		assert.Nil(t, result)
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Get user success", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := NewUserService(mockRepo, nil, nil)
		user := createTestUser("user-1", "alice", "secret123")

		mockRepo.On("GetByID", "user-1").Return(user, nil)

		result, err := service.GetUser("user-1")

		assert.NoError(t, err)
		assert.Equal(t, "user-1", result.ID)
		mockRepo.AssertExpectations(t)
	})
}
