package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"parkease/internal/db"
	"parkease/internal/entities"
	apperrors "parkease/internal/errors"
)

// UserRepository is the identity relation: one row per verified external
// identity. Credentials never live here; the identity provider owns those.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

const userColumns = `id, auth_uid, name, phone, email, created_at, updated_at`

func (r *UserRepository) CreateUser(ctx context.Context, u *db.User) error {
	query := `
		INSERT INTO users (id, auth_uid, name, phone, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, u.ID, u.AuthUID, u.Name, u.Phone, u.Email).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByAuthUID(ctx context.Context, authUID string) (*db.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE auth_uid = $1`, authUID)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg interface{}) (*db.User, error) {
	var u db.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.AuthUID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, id uuid.UUID, upd *entities.UserUpdate) (*db.User, error) {
	var sets []string
	var args []interface{}
	idx := 1
	addSet := func(column string, value interface{}) {
		sets = append(sets, column+" = $"+strconv.Itoa(idx))
		args = append(args, value)
		idx++
	}
	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.Phone != nil {
		addSet("phone", *upd.Phone)
	}
	if upd.Email != nil {
		addSet("email", *upd.Email)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		`, updated_at = NOW() WHERE id = $` + strconv.Itoa(idx) +
		` RETURNING ` + userColumns

	var u db.User
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.AuthUID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes the account and everything hanging off it: bookings are
// force-cancelled first so the ledger never contains a confirmed booking for
// a deleted renter, then rows are removed in dependency order.
func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings SET booking_status = $1
		WHERE user_id = $2 AND booking_status = $3`,
		db.BookingCancelled, id, db.BookingConfirmed)
	if err != nil {
		return fmt.Errorf("cancel user bookings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user bookings: %w", err)
	}
	// Slots and bookings on the user's own spaces cascade with the spaces.
	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_spaces WHERE owner_id = $1`, id); err != nil {
		return fmt.Errorf("delete user spaces: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return tx.Commit()
}
