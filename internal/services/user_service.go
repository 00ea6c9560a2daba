package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/helpers"
	"github.com/joshua-takyi/churchbook/internal/models"
)

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type UserService struct {
	identity models.IdentityProvider
	userRepo models.UserRepo
	tokens   *helpers.TokenIssuer
	userTTL  time.Duration
	adminTTL time.Duration
	logger   *slog.Logger
}

func NewUserService(identity models.IdentityProvider, userRepo models.UserRepo, tokens *helpers.TokenIssuer, userTTL, adminTTL time.Duration, logger *slog.Logger) *UserService {
	return &UserService{
		identity: identity,
		userRepo: userRepo,
		tokens:   tokens,
		userTTL:  helpers.ClampTTL(userTTL),
		adminTTL: helpers.ClampTTL(adminTTL),
		logger:   logger,
	}
}

// PasswordError lists every rule a rejected password breaks.
type PasswordError struct {
	Problems []string
}

func (e PasswordError) Error() string {
	return "Password does not meet requirements"
}

func (e PasswordError) Unwrap() error {
	return models.ValidationError{Field: "password", Msg: strings.Join(e.Problems, "; ")}
}

// Signup creates the identity first and then the users row. If the row
// cannot be stored the identity is deleted again.
func (us *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Role.SelfAssignable() {
		return nil, models.ValidationError{Field: "role", Msg: fmt.Sprintf("role %q cannot be chosen at signup", req.Role)}
	}
	if problems := helpers.PasswordProblems(req.Password); len(problems) > 0 {
		return nil, PasswordError{Problems: problems}
	}

	id, err := us.identity.SignUp(ctx, req.Email, req.Password, map[string]interface{}{
		"full_name": req.FullName,
		"role":      req.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	user, err := us.userRepo.CreateUser(ctx, &models.User{
		ID:            id,
		FullName:      req.FullName,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Role:          req.Role,
	})
	if err != nil {
		if rbErr := us.identity.DeleteIdentity(ctx, id); rbErr != nil {
			us.logger.Error("Failed to roll back identity after signup failure",
				"user_id", id,
				"error", rbErr,
			)
		} else {
			us.logger.Warn("Rolled back identity after signup failure", "user_id", id, "error", err)
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	us.logger.Info("User signed up", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (us *UserService) authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate(req); err != nil {
		return nil, err
	}
	id, err := us.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.GetUser(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.AuthError{Msg: "Invalid credentials", Err: err}
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (us *UserService) issue(user *models.User, ttl time.Duration) (*Session, error) {
	token, expires, err := us.tokens.Issue(user, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func (us *UserService) Login(ctx context.Context, req *models.LoginRequest) (*Session, error) {
	user, err := us.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	ttl := us.userTTL
	if user.Role.IsAdmin() {
		ttl = us.adminTTL
	}
	return us.issue(user, ttl)
}

// AdminLogin authenticates like Login and then insists on the admin role.
func (us *UserService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*Session, error) {
	user, err := us.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsAdmin() {
		us.logger.Warn("Non-admin attempted admin login", "user_id", user.ID)
		return nil, models.ForbiddenError{Msg: "Admin access required"}
	}
	return us.issue(user, us.adminTTL)
}

func (us *UserService) GetProfile(ctx context.Context, actor Actor) (*models.User, error) {
	return us.userRepo.GetUser(ctx, actor.ID)
}

// UpdateProfile changes the caller's own name and contact number. Role and
// email never come through here.
func (us *UserService) UpdateProfile(ctx context.Context, actor Actor, update *models.ProfileUpdate) (*models.User, error) {
	if err := validate(update); err != nil {
		return nil, err
	}
	user, err := us.userRepo.UpdateUser(ctx, actor.ID, update.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

type RoleChange struct {
	Role models.Role `json:"role" validate:"required"`
}

func (us *UserService) ChangeRole(ctx context.Context, actor Actor, userID uuid.UUID, change *RoleChange) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !change.Role.Valid() {
		return nil, models.ValidationError{Field: "role", Msg: fmt.Sprintf("invalid role %q", change.Role)}
	}
	if userID == actor.ID && !change.Role.IsAdmin() {
		return nil, models.ConflictError{Resource: "user", Msg: "administrators cannot demote themselves"}
	}

	user, err := us.userRepo.UpdateUser(ctx, userID, map[string]interface{}{"role": change.Role})
	if err != nil {
		return nil, err
	}
	us.logger.Info("User role changed", "user_id", userID, "role", change.Role, "admin_id", actor.ID)
	return user, nil
}

// ResolveActor loads the caller's current role from the users table.
func (us *UserService) ResolveActor(ctx context.Context, id uuid.UUID) (Actor, error) {
	user, err := us.userRepo.GetUser(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return Actor{}, models.AuthError{Msg: "Unknown user", Err: err}
		}
		return Actor{}, err
	}
	return Actor{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
