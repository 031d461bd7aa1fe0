package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UserRepository interface {
	CreateUser(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, userID int64, role string) error
	DeleteUser(ctx context.Context, userID int64) error
	CountUsers(ctx context.Context) (int64, error)
	ListEmails(ctx context.Context) ([]string, error)
}

type userRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewUserRepository(pool *pgxpool.Pool, logger *zap.Logger) UserRepository {
	return &userRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("user_repository"),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, tx pgx.Tx, user *domain.User) error {
	ctx, span := r.tracer.Start(ctx, "UserRepository.CreateUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("email", user.Email),
	)

	query := `
		INSERT INTO users (email, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Warn(
				ctx,
				r.logger,
				"Email already registered",
				zap.String("email", user.Email),
			)

			return ErrEmailTaken
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert user",
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.GetUserByEmail")
	defer span.End()

	query := `
		SELECT id, email, name, password_hash, role, created_at
		FROM users
		WHERE email = $1
	`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.GetUserByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, email, name, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}

	return &user, nil
}

func (r *userRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.ListUsers")
	defer span.End()

	query := `
		SELECT id, email, name, role, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.Role,
			&user.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, err
	}

	return users, nil
}

func (r *userRepo) UpdateUserRole(ctx context.Context, userID int64, role string) error {
	ctx, span := r.tracer.Start(ctx, "UserRepository.UpdateUserRole")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("role", role),
	)

	query := `
		UPDATE users
		SET role = $1
		WHERE id = $2
	`

	commandTag, err := r.pool.Exec(ctx, query, role, userID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update user role",
			zap.Error(err),
		)

		return fmt.Errorf("failed to update user role: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepo) DeleteUser(ctx context.Context, userID int64) error {
	ctx, span := r.tracer.Start(ctx, "UserRepository.DeleteUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		DELETE FROM users
		WHERE id = $1
	`

	commandTag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to delete user",
			zap.Error(err),
		)

		return fmt.Errorf("failed to delete user: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepo) CountUsers(ctx context.Context) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.CountUsers")
	defer span.End()

	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		span.RecordError(err)

		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

func (r *userRepo) ListEmails(ctx context.Context) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.ListEmails")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT email FROM users ORDER BY id`)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			span.RecordError(err)

			return nil, err
		}

		emails = append(emails, email)
	}

	return emails, rows.Err()
}
