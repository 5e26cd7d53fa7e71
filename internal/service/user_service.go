package service

import (
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/repository/interfaces"
	"crowdfund-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService 处理注册与登录相关的业务逻辑
type UserService struct {
	userRepo interfaces.UserRepository
}

func NewUserService(userRepo interfaces.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register 注册募捐人账号，邮箱全局唯一
func (s *UserService) Register(username, email, password string) (*model.User, error) {
	util.Logger.Info("开始注册用户", zap.String("email", email))

	if username == "" || email == "" || password == "" {
		return nil, errors.New(errors.ErrValidation, "用户名、邮箱和密码不能为空")
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrResourceConflict, "邮箱已被注册")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		util.Logger.Error("生成密码哈希失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         model.RoleFundraiser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	util.Logger.Info("用户注册成功", zap.Int("user_id", user.ID))
	return user, nil
}

// Login 校验邮箱密码，返回用户及签名后的令牌。
// 邮箱不存在和密码错误返回同一错误，不泄露账号是否存在
func (s *UserService) Login(email, password string) (*model.User, string, error) {
	user, err := s.authenticate(email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := util.GenerateToken(user.ID, user.Role)
	if err != nil {
		util.Logger.Error("生成令牌失败", zap.Error(err), zap.Int("user_id", user.ID))
		return nil, "", errors.Wrap(errors.ErrInternal, "生成令牌失败", err)
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return user, token, nil
}

// AdminLogin 管理员登录，非管理员账号一律按凭证错误处理
func (s *UserService) AdminLogin(email, password string) (*model.User, string, error) {
	user, err := s.authenticate(email, password)
	if err != nil {
		return nil, "", err
	}
	if user.Role != model.RoleAdmin {
		util.Logger.Warn("非管理员尝试管理员登录", zap.Int("user_id", user.ID))
		return nil, "", errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}

	token, err := util.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInternal, "生成令牌失败", err)
	}

	util.Logger.Info("管理员登录成功", zap.Int("user_id", user.ID))
	return user, token, nil
}

func (s *UserService) authenticate(email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Warn("密码校验失败", zap.Int("user_id", user.ID))
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}
	return user, nil
}

// GetByID 获取用户信息
func (s *UserService) GetByID(userID int) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "用户不存在")
	}
	return user, nil
}

type UserServiceInterface interface {
	Register(username, email, password string) (*model.User, error)
	Login(email, password string) (*model.User, string, error)
	AdminLogin(email, password string) (*model.User, string, error)
	GetByID(userID int) (*model.User, error)
}

var _ UserServiceInterface = (*UserService)(nil)
