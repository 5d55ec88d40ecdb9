package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrOperatorNotFound is returned when no active operator has the email
var ErrOperatorNotFound = errors.New("operator not found")

// Operator is a staff account allowed to use the API
type Operator struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// FindOperator looks up an active operator by email, case-insensitively
func FindOperator(ctx context.Context, email string) (*Operator, error) {
	if Pool == nil {
		return nil, ErrNotConfigured
	}

	var op Operator
	err := Pool.QueryRow(ctx, `
		SELECT id::text, email, name, role, password_hash
		FROM operators
		WHERE lower(email) = lower($1) AND active
	`, email).Scan(&op.ID, &op.Email, &op.Name, &op.Role, &op.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// TouchOperatorLogin records a successful login
func TouchOperatorLogin(ctx context.Context, id string) error {
	if Pool == nil {
		return ErrNotConfigured
	}
	_, err := Pool.Exec(ctx, `UPDATE operators SET last_login_at = now() WHERE id = $1::uuid`, id)
	return err
}

// CreateOperator inserts an operator with an already hashed password
func CreateOperator(ctx context.Context, op *Operator) error {
	if Pool == nil {
		return ErrNotConfigured
	}
	return Pool.QueryRow(ctx, `
		INSERT INTO operators (email, name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, op.Email, op.Name, op.Role, op.PasswordHash).Scan(&op.ID)
}
