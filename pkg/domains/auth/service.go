package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TokenTTL = 24 * time.Hour

var (
	ErrUserExists         = fmt.Errorf(constant.ALREADY_EXISTS, "User")
	ErrInvalidCredentials = errors.New(constant.INVALID_CREDENTIALS)
	ErrMissingSecret      = errors.New("jwt secret is not configured")
)

type Service interface {
	Register(ctx context.Context, req dtos.DTOForUserCreate) (string, error)
	Login(ctx context.Context, req dtos.DTOForUserLogin) (string, error)
}

type service struct {
	repository Repository
	secret     []byte
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(r Repository, secret string, log zerolog.Logger) Service {
	return &service{
		repository: r,
		secret:     []byte(secret),
		log:        log.With().Str("component", "auth").Logger(),
		now:        time.Now,
	}
}

func (s *service) Register(ctx context.Context, req dtos.DTOForUserCreate) (string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)

	// an empty phone would match every account without one
	var existing entities.User
	var err error
	if phone == "" {
		existing, err = s.repository.FindUserByEmail(ctx, email)
	} else {
		existing, err = s.repository.FindUserByEmailOrPhone(ctx, email, phone)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if existing.ID != 0 {
		return "", ErrUserExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := entities.User{
		Email:    email,
		Password: string(passwordHash),
		Name:     strings.TrimSpace(req.Name),
		Surname:  strings.TrimSpace(req.Surname),
		Phone:    phone,
	}
	if err := s.repository.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Uint("tenant_id", user.ID).Msg("tenant registered")

	return s.issue(user.ID)
}

func (s *service) Login(ctx context.Context, req dtos.DTOForUserLogin) (string, error) {
	user, err := s.repository.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issue(user.ID)
}

// issue signs the HS256 token CheckAuth expects: "id" and "exp" claims.
func (s *service) issue(userID uint) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": s.now().Add(TokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}
