// Package ridecache defines domain types for the ridecache service.
// This package has no project imports -- it is the dependency root.
package ridecache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --- Entity kinds and write operations ---

// Kind identifies an entity namespace shared by the backing store and
// the cache key scheme.
type Kind string

const (
	KindUser      Kind = "user"
	KindPassenger Kind = "passenger"
	KindRider     Kind = "rider"
)

// Kinds lists every entity kind, in warm-up order.
var Kinds = []Kind{KindUser, KindPassenger, KindRider}

// ParseKind validates a kind string from config or an HTTP path.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindUser, KindPassenger, KindRider:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// IsProfile reports whether the kind is owned by a user record.
func (k Kind) IsProfile() bool {
	return k == KindPassenger || k == KindRider
}

// Op is a backing-store write operation reported to the invalidation engine.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ParseOp validates an operation string.
func ParseOp(s string) (Op, error) {
	switch o := Op(s); o {
	case OpCreate, OpUpdate, OpDelete:
		return o, nil
	}
	return "", fmt.Errorf("%w: unknown op %q", ErrBadRequest, s)
}

// --- Cache key scheme ---

// ListKey returns the cache key holding the serialized list of a kind,
// e.g. "user_list".
func ListKey(kind Kind) string {
	return string(kind) + "_list"
}

// ItemKey returns the cache key holding one serialized record,
// e.g. "user_7". The scheme is injective: kind names contain neither
// digits nor underscores, so no two (kind, id) pairs collide, and "list"
// is not a valid id. Keys carry no per-process salt so external warmers
// and the invalidation engine always agree on naming.
func ItemKey(kind Kind, id int64) string {
	return string(kind) + "_" + strconv.FormatInt(id, 10)
}

// KindPrefix returns the structural prefix shared by all keys of a kind.
// Introspection classifies keys by this prefix rather than substring
// matching, so unrelated keys in a shared store are never miscounted.
func KindPrefix(kind Kind) string {
	return string(kind) + "_"
}

// WriteRef identifies the record touched by a write. OwnerID is the owning
// user for profile kinds and ignored for users.
type WriteRef struct {
	ID      int64
	OwnerID int64
}

// --- Entities ---

// User is an account record. At most one passenger and one rider profile
// reference it.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	UserType    string    `json:"user_type"` // "passenger", "rider" or other
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName returns "first last" trimmed, falling back to the email when
// both name fields are empty.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Passenger is the passenger-role profile of a user. Owner is resolved
// eagerly by the storage layer; it is never persisted into the cache as a
// reference, only flattened into PassengerView fields.
type Passenger struct {
	ID                     int64  `json:"id"`
	PassengerID            string `json:"passenger_id"` // external booking code
	UserID                 int64  `json:"user_id"`
	PreferredPaymentMethod string `json:"preferred_payment_method"`
	HomeAddress            string `json:"home_address"`
	Owner                  *User  `json:"-"`
}

// Rider is the rider-role profile of a user.
type Rider struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	Owner  *User `json:"-"`
}

// --- Cached views ---
//
// Views are the flat records stored in the cache. Profile views embed the
// owning user's email and display name at serialization time, so a cached
// profile stays meaningful even when the live user record changes or is
// fetched independently.

// UserView is the cached representation of a User. It embeds no profile
// data; the invalidation engine still clears user keys on profile writes
// as the deliberate safe default.
type UserView struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type"`
}

// PassengerView is the cached representation of a Passenger.
type PassengerView struct {
	ID                     int64  `json:"id"`
	PassengerID            string `json:"passenger_id"`
	PreferredPaymentMethod string `json:"preferred_payment_method"`
	HomeAddress            string `json:"home_address"`
	UserEmail              string `json:"user_email"`
	UserName               string `json:"user_name"`
	UserID                 int64  `json:"user"`
}

// RiderView is the cached representation of a Rider.
type RiderView struct {
	ID        int64  `json:"id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
	UserID    int64  `json:"user"`
}

// View returns the cached representation of the user.
func (u *User) View() UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		UserType:    u.UserType,
	}
}

// View flattens the passenger and its owner into a cacheable record.
// Fails when the owner was not resolved.
func (p *Passenger) View() (PassengerView, error) {
	if p.Owner == nil {
		return PassengerView{}, fmt.Errorf("passenger %d: %w", p.ID, ErrMissingOwner)
	}
	return PassengerView{
		ID:                     p.ID,
		PassengerID:            p.PassengerID,
		PreferredPaymentMethod: p.PreferredPaymentMethod,
		HomeAddress:            p.HomeAddress,
		UserEmail:              p.Owner.Email,
		UserName:               p.Owner.DisplayName(),
		UserID:                 p.UserID,
	}, nil
}

// View flattens the rider and its owner into a cacheable record.
func (r *Rider) View() (RiderView, error) {
	if r.Owner == nil {
		return RiderView{}, fmt.Errorf("rider %d: %w", r.ID, ErrMissingOwner)
	}
	return RiderView{
		ID:        r.ID,
		UserEmail: r.Owner.Email,
		UserName:  r.Owner.DisplayName(),
		UserID:    r.UserID,
	}, nil
}

// --- Request context ---

type ctxKey int

const requestIDKey ctxKey = iota

// ContextWithRequestID stores a request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
