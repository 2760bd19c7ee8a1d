// Package storage defines persistence interfaces for the ridecache service.
package storage

import (
	"context"

	ridecache "github.com/eugener/ridecache/internal"
)

// UserStore manages user record persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *ridecache.User) error
	GetUser(ctx context.Context, id int64) (*ridecache.User, error)
	ListUsers(ctx context.Context) ([]*ridecache.User, error)
	UpdateUser(ctx context.Context, u *ridecache.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// PassengerStore manages passenger profile persistence. Get and List
// resolve the owning user eagerly so callers can flatten it into views
// without a second round trip.
type PassengerStore interface {
	CreatePassenger(ctx context.Context, p *ridecache.Passenger) error
	GetPassenger(ctx context.Context, id int64) (*ridecache.Passenger, error)
	ListPassengers(ctx context.Context) ([]*ridecache.Passenger, error)
	UpdatePassenger(ctx context.Context, p *ridecache.Passenger) error
	DeletePassenger(ctx context.Context, id int64) error
}

// RiderStore manages rider profile persistence, owner resolved eagerly.
type RiderStore interface {
	CreateRider(ctx context.Context, r *ridecache.Rider) error
	GetRider(ctx context.Context, id int64) (*ridecache.Rider, error)
	ListRiders(ctx context.Context) ([]*ridecache.Rider, error)
	UpdateRider(ctx context.Context, r *ridecache.Rider) error
	DeleteRider(ctx context.Context, id int64) error
}

// EventTotal is an aggregated count of one (kind, event) pair.
type EventTotal struct {
	Kind  string `json:"kind"`
	Event string `json:"event"`
	Count int64  `json:"count"`
}

// EventStore manages cache event audit persistence.
type EventStore interface {
	InsertEvents(ctx context.Context, events []ridecache.CacheEvent) error
	EventTotals(ctx context.Context) ([]EventTotal, error)
}

// Store combines all storage interfaces.
type Store interface {
	UserStore
	PassengerStore
	RiderStore
	EventStore
	Ping(ctx context.Context) error
	Close() error
}
