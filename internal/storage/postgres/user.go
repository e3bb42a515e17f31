package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nickeddy/uamud/internal/game/world"
)

// CreateUser inserts a new account.
//
// Precondition: username and passwordHash must be non-empty.
// Postcondition: Returns the created user with ID and CreatedAt set, or
// world.ErrUserExists if the username is taken.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*world.User, error) {
	var u world.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, password_hash, admin, banned, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Admin, &u.Banned, &u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, world.ErrUserExists
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &u, nil
}

// UserByName retrieves an account by username, case-insensitively.
func (s *Store) UserByName(ctx context.Context, username string) (*world.User, error) {
	var u world.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, password_hash, admin, banned, created_at
		 FROM users WHERE lower(username) = lower($1)`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Admin, &u.Banned, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, world.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// Users lists all accounts ordered by username.
func (s *Store) Users(ctx context.Context) ([]*world.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, username, password_hash, admin, banned, created_at
		 FROM users ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var out []*world.User
	for rows.Next() {
		var u world.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Admin, &u.Banned, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// SetBanned flags or unflags an account.
func (s *Store) SetBanned(ctx context.Context, username string, banned bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET banned = $1 WHERE lower(username) = lower($2)`,
		banned, username,
	)
	if err != nil {
		return fmt.Errorf("updating ban flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrUserNotFound
	}
	return nil
}

// SetAdmin grants or revokes admin on an account.
func (s *Store) SetAdmin(ctx context.Context, username string, admin bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET admin = $1 WHERE lower(username) = lower($2)`,
		admin, username,
	)
	if err != nil {
		return fmt.Errorf("updating admin flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes an account. Characters cascade.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM users WHERE lower(username) = lower($1)`,
		username,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return world.ErrUserNotFound
	}
	return nil
}

// AddIPBan records a banned remote address. Re-banning is a no-op.
func (s *Store) AddIPBan(ctx context.Context, address string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO ip_bans (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`,
		address,
	)
	if err != nil {
		return fmt.Errorf("inserting ip ban: %w", err)
	}
	return nil
}

// IsIPBanned reports whether the address is banned.
func (s *Store) IsIPBanned(ctx context.Context, address string) (bool, error) {
	var banned bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ip_bans WHERE address = $1)`,
		address,
	).Scan(&banned)
	if err != nil {
		return false, fmt.Errorf("querying ip ban: %w", err)
	}
	return banned, nil
}
