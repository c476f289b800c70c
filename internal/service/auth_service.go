package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"scanlink/backend/config"
	"scanlink/backend/internal/dto"
	"scanlink/backend/internal/model"
	"scanlink/backend/internal/repository"
	"scanlink/backend/pkg/jwt"
	"scanlink/backend/pkg/password"
)

var (
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrTeacherNotFound    = errors.New("teacher account not found")
)

// AuthService handles teacher-portal accounts.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Me(ctx context.Context, teacherID string) (*dto.TeacherResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	hasher *password.Hasher
	logger *zap.Logger
}

// NewAuthService creates the AuthService.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	hasher *password.Hasher,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		hasher: hasher,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	teacher, err := s.repo.Teacher.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("looking up teacher", zap.Error(err))
		return nil, err
	}

	if !s.hasher.Verify(req.Password, teacher.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.tokenResponse(teacher)
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if _, err := s.repo.Teacher.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("hashing password", zap.Error(err))
		return nil, err
	}

	teacher := &model.Teacher{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if req.SchoolName != "" {
		school := req.SchoolName
		teacher.SchoolName = &school
	}
	if err := s.repo.Teacher.Create(ctx, teacher); err != nil {
		s.logger.Error("creating teacher", zap.Error(err))
		return nil, err
	}

	return s.tokenResponse(teacher)
}

func (s *authService) Me(ctx context.Context, teacherID string) (*dto.TeacherResponse, error) {
	teacher, err := s.repo.Teacher.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	resp := teacherResponse(teacher)
	return &resp, nil
}

func (s *authService) tokenResponse(teacher *model.Teacher) (*dto.TokenResponse, error) {
	token, err := s.jwtMgr.IssueDashboardToken(teacher.TeacherID, model.RoleTeacher)
	if err != nil {
		s.logger.Error("issuing dashboard token", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		Token:     token,
		ExpiresIn: int(s.cfg.Auth.DashboardTokenTTL.Seconds()),
		Teacher:   teacherResponse(teacher),
	}, nil
}

func teacherResponse(teacher *model.Teacher) dto.TeacherResponse {
	resp := dto.TeacherResponse{
		ID:    teacher.TeacherID,
		Name:  teacher.Name,
		Email: teacher.Email,
	}
	if teacher.SchoolName != nil {
		resp.SchoolName = *teacher.SchoolName
	}
	return resp
}
