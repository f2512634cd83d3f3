package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/ai-course-generator/config"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

const defaultTokenTTL = 24 * time.Hour

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Signup(ctx context.Context, req types.SignupRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	SocialLogin(ctx context.Context, req types.SocialLoginRequest) (*types.AuthResponse, error)
	RoleFor(ctx context.Context, user *types.UserProfile) string
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
	now    func() time.Time
}

func NewAuthService(repo AuthRepo, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	if jwtCfg.TTL <= 0 {
		jwtCfg.TTL = defaultTokenTTL
	}
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
		now:    time.Now,
	}
}

func (s *AuthServiceImpl) Signup(ctx context.Context, req types.SignupRequest) (*types.AuthResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Signup")
	defer span.End()
	l := s.logger.With(slog.String("method", "Signup"))

	email := normalizeEmail(req.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, strings.TrimSpace(req.Name), string(hash), types.PlanFree)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			l.InfoContext(ctx, "Signup with existing email")
		} else {
			l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user failed")
		return nil, err
	}

	resp, err := s.issue(ctx, user, "Account created successfully")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	span.SetStatus(codes.Ok, "User signed up")
	l.InfoContext(ctx, "User signed up", slog.String("userID", user.ID.String()))
	return resp, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			span.SetStatus(codes.Error, "unknown email")
			return nil, fmt.Errorf("Invalid email or password: %w", types.ErrUnauthenticated)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		l.InfoContext(ctx, "Password mismatch", slog.String("userID", user.ID.String()))
		span.SetStatus(codes.Error, "password mismatch")
		return nil, fmt.Errorf("Invalid email or password: %w", types.ErrUnauthenticated)
	}

	resp, err := s.issue(ctx, user, "SignIn successful")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "User logged in")
	return resp, nil
}

// SocialLogin signs in a user authenticated by an external identity provider,
// creating the account on first use with an unusable random password.
func (s *AuthServiceImpl) SocialLogin(ctx context.Context, req types.SocialLoginRequest) (*types.AuthResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "SocialLogin", trace.WithAttributes(
		attribute.String("auth.flow", "social"),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "SocialLogin"))

	email := normalizeEmail(req.Email)
	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		resp, err := s.issue(ctx, user, "SignIn successful")
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetStatus(codes.Ok, "existing user")
		return resp, nil
	case !errors.Is(err, types.ErrNotFound):
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err = s.repo.CreateUser(ctx, email, strings.TrimSpace(req.Name), string(hash), types.PlanFree)
	if errors.Is(err, types.ErrConflict) {
		// lost a race with a concurrent first login
		user, err = s.repo.GetUserByEmail(ctx, email)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user failed")
		return nil, err
	}

	l.InfoContext(ctx, "Social account created", slog.String("userID", user.ID.String()))
	resp, err := s.issue(ctx, user, "Account created successfully")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "new user")
	return resp, nil
}

// RoleFor is admin when the user's plan tag is admin or the email is in the admins table.
func (s *AuthServiceImpl) RoleFor(ctx context.Context, user *types.UserProfile) string {
	if user.Type == types.PlanAdmin {
		return types.RoleAdmin
	}
	ok, err := s.repo.IsAdmin(ctx, user.Email)
	if err != nil {
		s.logger.WarnContext(ctx, "Admin lookup failed, defaulting to user role", slog.Any("error", err))
		return types.RoleUser
	}
	if ok {
		return types.RoleAdmin
	}
	return types.RoleUser
}

func (s *AuthServiceImpl) issue(ctx context.Context, user *types.UserProfile, message string) (*types.AuthResponse, error) {
	token, err := s.generateAccessToken(user, s.RoleFor(ctx, user))
	if err != nil {
		return nil, err
	}
	return &types.AuthResponse{
		Success: true,
		Message: message,
		User:    user,
		Token:   token,
	}, nil
}

func (s *AuthServiceImpl) generateAccessToken(user *types.UserProfile, role string) (string, error) {
	now := s.now()
	claims := &types.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   role,
		Plan:   user.PlanOrFree(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.TTL)),
		},
	}
	if s.jwtCfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.jwtCfg.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
