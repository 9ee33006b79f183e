package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/internal/auth"
	"github.com/safetytracker/safetytracker/internal/models"
	apperrors "github.com/safetytracker/safetytracker/internal/pkg/errors"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/repositories"
	"github.com/safetytracker/safetytracker/internal/types"
)

type RegisterInput struct {
	Username        string `json:"username" form:"username" validate:"required,max=150"`
	Email           string `json:"email" form:"email" validate:"omitempty,email"`
	Password        string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
}

type UserService struct {
	db    *gorm.DB
	users *repositories.UserRepository
}

func NewUserService(db *gorm.DB, users *repositories.UserRepository) *UserService {
	return &UserService{db: db, users: users}
}

// Register creates the user and an employee profile in one transaction.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	exists, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to check username", err)
	}
	if exists {
		return nil, usernameTaken()
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to hash password", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		profile := &models.Profile{UserID: user.ID, Role: types.RoleEmployee}
		if err := users.CreateProfile(ctx, profile); err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, usernameTaken()
		}
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to register user", err)
	}

	logger.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func usernameTaken() error {
	return apperrors.FieldInvalid("username", apperrors.CodeUsernameTaken, "A user with that username already exists.")
}

// Authenticate checks credentials. Unknown users and wrong passwords produce
// the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to load user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, invalidCredentials()
	}

	return user, nil
}

func invalidCredentials() error {
	return apperrors.FieldInvalid("__all__", apperrors.CodeInvalidCredentials,
		"Please enter a correct username and password. Note that both fields may be case-sensitive.")
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
		}
		return nil, apperrors.Internal(apperrors.CodeInternal, "failed to load user", err)
	}
	return user, nil
}

// CreateMissingProfiles gives every user without a profile an employee one and
// returns their usernames.
func (s *UserService) CreateMissingProfiles(ctx context.Context) ([]string, error) {
	users, err := s.users.ListWithoutProfile(ctx)
	if err != nil {
		return nil, err
	}

	fixed := make([]string, 0, len(users))
	for _, u := range users {
		if err := s.users.CreateProfile(ctx, &models.Profile{UserID: u.ID, Role: types.RoleEmployee}); err != nil {
			return fixed, err
		}
		fixed = append(fixed, u.Username)
	}
	return fixed, nil
}

// SetRole assigns role to the named user, creating the profile if needed.
func (s *UserService) SetRole(ctx context.Context, username string, role types.Role) error {
	if !role.Valid() {
		return apperrors.FieldInvalid("role", "invalid_choice", "Select a valid choice.")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
		}
		return err
	}

	if err := s.users.UpsertRole(ctx, user.ID, role); err != nil {
		return err
	}

	logger.Info("User role changed", zap.String("username", username), zap.String("role", string(role)))
	return nil
}

// HomePath is where a user lands after signing in.
func HomePath(user *models.User) string {
	if user.IsManager() {
		return "/manager-dashboard/"
	}
	return "/new-incident/"
}
