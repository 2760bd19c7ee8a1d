package sqlite

import (
	"context"

	ridecache "github.com/eugener/ridecache/internal"
)

const riderCols = `
	SELECT r.id, r.user_id,
	       u.id, u.email, u.first_name, u.last_name, u.phone_number, u.user_type, u.created_at
	FROM riders r
	JOIN users u ON u.id = r.user_id`

// CreateRider inserts a new rider profile and assigns its ID.
func (s *Store) CreateRider(ctx context.Context, r *ridecache.Rider) error {
	result, err := s.write.ExecContext(ctx,
		`INSERT INTO riders (user_id) VALUES (?)`, r.UserID,
	)
	if err != nil {
		return constraintErr(err)
	}
	r.ID, err = result.LastInsertId()
	return err
}

// GetRider retrieves a rider by ID with its owner resolved.
func (s *Store) GetRider(ctx context.Context, id int64) (*ridecache.Rider, error) {
	row := s.read.QueryRowContext(ctx, riderCols+` WHERE r.id=?`, id)
	return scanRider(row)
}

// ListRiders returns all riders with owners resolved, ordered by ID.
func (s *Store) ListRiders(ctx context.Context) ([]*ridecache.Rider, error) {
	rows, err := s.read.QueryContext(ctx, riderCols+` ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riders []*ridecache.Rider
	for rows.Next() {
		r, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		riders = append(riders, r)
	}
	return riders, rows.Err()
}

// UpdateRider updates a rider profile.
func (s *Store) UpdateRider(ctx context.Context, r *ridecache.Rider) error {
	result, err := s.write.ExecContext(ctx,
		`UPDATE riders SET user_id=? WHERE id=?`, r.UserID, r.ID,
	)
	if err != nil {
		return constraintErr(err)
	}
	return checkRowsAffected(result, "rider")
}

// DeleteRider removes a rider profile.
func (s *Store) DeleteRider(ctx context.Context, id int64) error {
	result, err := s.write.ExecContext(ctx, `DELETE FROM riders WHERE id=?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, "rider")
}

func scanRider(sc scanner) (*ridecache.Rider, error) {
	var r ridecache.Rider
	var u ridecache.User
	var createdAt string

	err := sc.Scan(
		&r.ID, &r.UserID,
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.UserType, &createdAt,
	)
	if err != nil {
		return nil, notFoundErr(err)
	}
	u.CreatedAt = parseTime(createdAt)
	r.Owner = &u
	return &r, nil
}
