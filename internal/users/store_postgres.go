// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhngo/clipstream/internal/platform/database/schema"
	"github.com/minhngo/clipstream/internal/platform/dberr"
)

// userColumns is the canonical SELECT list for hydrating a [User].
//
// The refresh token column is nullable (logout clears it), so it is coalesced
// to the empty string here rather than forcing a pointer field on the entity.
var userColumns = fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, COALESCE(%s, ''), %s, %s",
	schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
	schema.UserAccount.FullName, schema.UserAccount.Password, schema.UserAccount.AvatarURL,
	schema.UserAccount.CoverImageURL, schema.UserAccount.RefreshToken,
	schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
)

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to
// domain-friendly [apperr.AppError] values via [dberr.Wrap] so nothing above
// this layer sees driver details.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Timestamps are initialized here if the caller left them zero.
A duplicate username or email surfaces as apperr.Conflict via the table's
unique constraints.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
		schema.UserAccount.FullName, schema.UserAccount.Password, schema.UserAccount.AvatarURL,
		schema.UserAccount.CoverImageURL, schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		userColumns, schema.UserAccount.Table, schema.UserAccount.ID)

	return repository.scanOne(repository.pool.QueryRow(context, query, id))
}

/*
FindByLogin retrieves a user record by username or email.

Description: A single lookup serves both login identifier forms, mirroring
the "username or email" contract of the login flow.

Parameters:
  - context: context.Context
  - login: string (Normalized)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByLogin(context context.Context, login string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 OR %s = $1`,
		userColumns, schema.UserAccount.Table,
		schema.UserAccount.Username, schema.UserAccount.Email)

	return repository.scanOne(repository.pool.QueryRow(context, query, login))
}

/*
ExistsByIdentity reports whether the username or the email is already taken.

Parameters:
  - context: context.Context
  - username: string
  - email: string

Returns:
  - bool: true if either identifier exists
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ExistsByIdentity(context context.Context, username, email string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 OR %s = $2)`,
		schema.UserAccount.Table, schema.UserAccount.Username, schema.UserAccount.Email)

	var exists bool
	if err := repository.pool.QueryRow(context, query, username, email).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "User")
	}

	return exists, nil
}

/*
UpdateAccountDetails replaces the full name and email, returning the updated row.

Parameters:
  - context: context.Context
  - userID: string
  - fullName: string
  - email: string

Returns:
  - *User: Updated entity
  - error: apperr.NotFound, apperr.Conflict (duplicate email) or execution errors
*/
func (repository *PostgresUserRepository) UpdateAccountDetails(context context.Context, userID, fullName, email string) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4
		WHERE %s = $1
		RETURNING %s`,
		schema.UserAccount.Table,
		schema.UserAccount.FullName, schema.UserAccount.Email, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, userColumns,
	)

	return repository.scanOne(repository.pool.QueryRow(context, query, userID, fullName, email, time.Now()))
}

/*
UpdateAvatarURL replaces only the avatar URL, returning the updated row.

Parameters:
  - context: context.Context
  - userID: string
  - url: string

Returns:
  - *User: Updated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) UpdateAvatarURL(context context.Context, userID, url string) (*User, error) {
	return repository.updateURLColumn(context, schema.UserAccount.AvatarURL, userID, url)
}

/*
UpdateCoverImageURL replaces only the cover image URL, returning the updated row.

Parameters:
  - context: context.Context
  - userID: string
  - url: string

Returns:
  - *User: Updated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) UpdateCoverImageURL(context context.Context, userID, url string) (*User, error) {
	return repository.updateURLColumn(context, schema.UserAccount.CoverImageURL, userID, url)
}

// updateURLColumn factors the shared single-column image URL update.
func (repository *PostgresUserRepository) updateURLColumn(context context.Context, column, userID, url string) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1
		RETURNING %s`,
		schema.UserAccount.Table,
		column, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, userColumns,
	)

	return repository.scanOne(repository.pool.QueryRow(context, query, userID, url, time.Now()))
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.Password, schema.UserAccount.UpdatedAt, schema.UserAccount.ID)

	if _, err := repository.pool.Exec(context, query, userID, newHash, time.Now()); err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
SetRefreshToken overwrites the stored refresh token unconditionally.

Description: Single-field write that deliberately skips the profile-level
timestamps and validations the full-row updates imply.

Parameters:
  - context: context.Context
  - userID: string
  - token: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetRefreshToken(context context.Context, userID, token string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.RefreshToken, schema.UserAccount.ID)

	if _, err := repository.pool.Exec(context, query, userID, token); err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
RotateRefreshToken swaps the stored refresh token via a conditional UPDATE.

Description: The WHERE clause carries the equality check, so PostgreSQL's
per-row write serialization is the rotation's serialization point: of two
racing rotations presenting the same token, exactly one affects a row.

Parameters:
  - context: context.Context
  - userID: string
  - presented: string
  - next: string

Returns:
  - bool: true if the stored value matched and was replaced
  - error: Execution errors
*/
func (repository *PostgresUserRepository) RotateRefreshToken(context context.Context, userID, presented, next string) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2`,
		schema.UserAccount.Table, schema.UserAccount.RefreshToken,
		schema.UserAccount.ID, schema.UserAccount.RefreshToken)

	tag, err := repository.pool.Exec(context, query, userID, presented, next)
	if err != nil {
		return false, dberr.Wrap(err, "User")
	}

	return tag.RowsAffected() == 1, nil
}

/*
ClearRefreshToken removes the stored refresh token (logout).

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearRefreshToken(context context.Context, userID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.RefreshToken, schema.UserAccount.ID)

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

// scanOne hydrates a single [User] from a query row.
func (repository *PostgresUserRepository) scanOne(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}
