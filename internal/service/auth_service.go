package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/pkg/mylogger"
	outboxDomain "github.com/dabd2323/music-store/pkg/outbox/domain"
	"github.com/dabd2323/music-store/pkg/outbox/worker"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.TokenResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	VerifyToken(tokenString string) (*Claims, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
}

type authService struct {
	pool       *pgxpool.Pool
	logger     *zap.Logger
	userRepo   repository.UserRepository
	outboxRepo worker.OutboxRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
	tracer     trace.Tracer
}

func NewAuthService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	userRepo repository.UserRepository,
	outboxRepo worker.OutboxRepository,
	jwtSecret string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		pool:       pool,
		logger:     logger,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		tracer:     otel.Tracer("auth_service"),
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	span.SetAttributes(
		attribute.String("email", req.Email),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(shutdownCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				shutdownCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	user := &domain.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}

	if err := s.userRepo.CreateUser(ctx, tx, user); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to create user",
			zap.String("email", req.Email),
			zap.Error(err),
		)

		return nil, err
	}

	if err := s.emitEvent(ctx, tx, "UserRegistered", domain.TopicUserEvents, user.ID, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}

		span.RecordError(err)

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Login failed, wrong password",
			zap.String("email", req.Email),
		)

		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) issueToken(user *domain.User) (*domain.TokenResponse, error) {
	now := time.Now()

	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
	}, nil
}

func (s *authService) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

func (s *authService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.GetUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *authService) emitEvent(ctx context.Context, tx pgx.Tx, eventType, topic string, aggregateID int64, payload any) error {
	wrapper := map[string]any{
		"event":   eventType,
		"payload": payload,
	}

	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to marshal wrapper: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "User",
		AggregateID:   fmt.Sprintf("%d", aggregateID),
		EventType:     eventType,
		Payload:       wrapperBytes,
		Topic:         topic,
	}

	return s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent)
}
