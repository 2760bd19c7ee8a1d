package sqlite

import (
	"context"

	ridecache "github.com/eugener/ridecache/internal"
)

// passengerCols joins each passenger with its owning user so the owner is
// resolved in one query.
const passengerCols = `
	SELECT p.id, p.passenger_id, p.user_id, p.preferred_payment_method, p.home_address,
	       u.id, u.email, u.first_name, u.last_name, u.phone_number, u.user_type, u.created_at
	FROM passengers p
	JOIN users u ON u.id = p.user_id`

// CreatePassenger inserts a new passenger profile and assigns its ID.
func (s *Store) CreatePassenger(ctx context.Context, p *ridecache.Passenger) error {
	result, err := s.write.ExecContext(ctx,
		`INSERT INTO passengers (passenger_id, user_id, preferred_payment_method, home_address)
		 VALUES (?, ?, ?, ?)`,
		p.PassengerID, p.UserID, p.PreferredPaymentMethod, p.HomeAddress,
	)
	if err != nil {
		return constraintErr(err)
	}
	p.ID, err = result.LastInsertId()
	return err
}

// GetPassenger retrieves a passenger by ID with its owner resolved.
func (s *Store) GetPassenger(ctx context.Context, id int64) (*ridecache.Passenger, error) {
	row := s.read.QueryRowContext(ctx, passengerCols+` WHERE p.id=?`, id)
	return scanPassenger(row)
}

// ListPassengers returns all passengers with owners resolved, ordered by ID.
func (s *Store) ListPassengers(ctx context.Context) ([]*ridecache.Passenger, error) {
	rows, err := s.read.QueryContext(ctx, passengerCols+` ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []*ridecache.Passenger
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

// UpdatePassenger updates a passenger profile.
func (s *Store) UpdatePassenger(ctx context.Context, p *ridecache.Passenger) error {
	result, err := s.write.ExecContext(ctx,
		`UPDATE passengers SET passenger_id=?, user_id=?, preferred_payment_method=?, home_address=?
		 WHERE id=?`,
		p.PassengerID, p.UserID, p.PreferredPaymentMethod, p.HomeAddress, p.ID,
	)
	if err != nil {
		return constraintErr(err)
	}
	return checkRowsAffected(result, "passenger")
}

// DeletePassenger removes a passenger profile.
func (s *Store) DeletePassenger(ctx context.Context, id int64) error {
	result, err := s.write.ExecContext(ctx, `DELETE FROM passengers WHERE id=?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, "passenger")
}

func scanPassenger(sc scanner) (*ridecache.Passenger, error) {
	var p ridecache.Passenger
	var u ridecache.User
	var createdAt string

	err := sc.Scan(
		&p.ID, &p.PassengerID, &p.UserID, &p.PreferredPaymentMethod, &p.HomeAddress,
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.UserType, &createdAt,
	)
	if err != nil {
		return nil, notFoundErr(err)
	}
	u.CreatedAt = parseTime(createdAt)
	p.Owner = &u
	return &p, nil
}
