package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

// TokenPair carries the access/refresh token pair issued at login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService struct {
	users      UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(users UserRepository, jwtSecret string, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		log:        log,
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now(),
	}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", email).Msg("user registered")
	saved.Password = ""
	return saved, nil
}

// Login authenticates a user and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, errors.New("invalid credentials")
	}

	access, err := s.newToken(user.ID, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.newToken(user.ID, "refresh", s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshAccessToken mints a new access token from a valid refresh token.
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := s.parseClaims(refreshToken)
	if err != nil {
		return "", err
	}
	if claims["type"] != "refresh" {
		return "", errors.New("not a refresh token")
	}
	sub, _ := claims["sub"].(string)
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return "", errors.New("invalid token claims")
	}
	return s.newToken(userID, "access", s.accessTTL)
}

// VerifyAccessToken returns the user id carried by a valid access token.
func (s *AuthService) VerifyAccessToken(tokenString string) (string, error) {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return "", err
	}
	if claims["type"] != "access" {
		return "", errors.New("not an access token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("invalid token claims")
	}
	return sub, nil
}

// GetUserByID returns a user by their ID, with the password hash blanked.
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrEntityNotFound)
	}
	user, err := s.users.GetByID(ctx, objID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrEntityNotFound)
	}
	user.Password = ""
	return user, nil
}

func (s *AuthService) newToken(userID primitive.ObjectID, tokenType string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.Hex(),
		"type": tokenType,
		"jti":  uuid.NewString(),
		"exp":  time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
