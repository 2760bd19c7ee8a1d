package sqlite

import (
	"context"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
)

// CreateUser inserts a new user and assigns its ID.
func (s *Store) CreateUser(ctx context.Context, u *ridecache.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	result, err := s.write.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, phone_number, user_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.FirstName, u.LastName, u.PhoneNumber, u.UserType,
		u.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return constraintErr(err)
	}
	u.ID, err = result.LastInsertId()
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*ridecache.User, error) {
	row := s.read.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, phone_number, user_type, created_at
		 FROM users WHERE id=?`, id,
	)
	return scanUser(row)
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]*ridecache.User, error) {
	rows, err := s.read.QueryContext(ctx,
		`SELECT id, email, first_name, last_name, phone_number, user_type, created_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*ridecache.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user record.
func (s *Store) UpdateUser(ctx context.Context, u *ridecache.User) error {
	result, err := s.write.ExecContext(ctx,
		`UPDATE users SET email=?, first_name=?, last_name=?, phone_number=?, user_type=?
		 WHERE id=?`,
		u.Email, u.FirstName, u.LastName, u.PhoneNumber, u.UserType, u.ID,
	)
	if err != nil {
		return constraintErr(err)
	}
	return checkRowsAffected(result, "user")
}

// DeleteUser removes a user. Owned profiles cascade in the schema.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.write.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, "user")
}

func scanUser(sc scanner) (*ridecache.User, error) {
	var u ridecache.User
	var createdAt string

	err := sc.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.UserType, &createdAt)
	if err != nil {
		return nil, notFoundErr(err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
