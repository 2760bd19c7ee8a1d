// Package testutil provides shared fakes for tests.
package testutil

import (
	"context"
	"sync"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
	"github.com/eugener/ridecache/internal/storage"
)

// FakeStore is an in-memory storage.Store. Get/List resolve profile
// owners from the user table like the SQLite implementation does.
// Setting Err makes every call fail with it.
type FakeStore struct {
	mu         sync.Mutex
	Err        error
	users      map[int64]*ridecache.User
	passengers map[int64]*ridecache.Passenger
	riders     map[int64]*ridecache.Rider
	events     []ridecache.CacheEvent
	nextID     int64
}

// NewFakeStore returns an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:      make(map[int64]*ridecache.User),
		passengers: make(map[int64]*ridecache.Passenger),
		riders:     make(map[int64]*ridecache.Rider),
	}
}

func (s *FakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

// SeedUser inserts a user with a fixed ID.
func (s *FakeStore) SeedUser(u ridecache.User) *ridecache.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	s.users[u.ID] = &u
	return &u
}

// SeedPassenger inserts a passenger profile with a fixed ID.
func (s *FakeStore) SeedPassenger(p ridecache.Passenger) *ridecache.Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}
	s.passengers[p.ID] = &p
	return &p
}

// SeedRider inserts a rider profile with a fixed ID.
func (s *FakeStore) SeedRider(r ridecache.Rider) *ridecache.Rider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.id()
	} else if r.ID > s.nextID {
		s.nextID = r.ID
	}
	s.riders[r.ID] = &r
	return &r
}

func (s *FakeStore) owner(id int64) *ridecache.User {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// --- UserStore ---

func (s *FakeStore) CreateUser(_ context.Context, u *ridecache.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *FakeStore) GetUser(_ context.Context, id int64) (*ridecache.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, ridecache.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *FakeStore) ListUsers(_ context.Context) ([]*ridecache.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*ridecache.User, 0, len(s.users))
	for id := int64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *FakeStore) UpdateUser(_ context.Context, u *ridecache.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[u.ID]; !ok {
		return ridecache.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *FakeStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return ridecache.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// --- PassengerStore ---

func (s *FakeStore) CreatePassenger(_ context.Context, p *ridecache.Passenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p.ID = s.id()
	cp := *p
	s.passengers[p.ID] = &cp
	return nil
}

func (s *FakeStore) GetPassenger(_ context.Context, id int64) (*ridecache.Passenger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.passengers[id]
	if !ok {
		return nil, ridecache.ErrNotFound
	}
	cp := *p
	cp.Owner = s.owner(p.UserID)
	return &cp, nil
}

func (s *FakeStore) ListPassengers(_ context.Context) ([]*ridecache.Passenger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*ridecache.Passenger, 0, len(s.passengers))
	for id := int64(1); id <= s.nextID; id++ {
		if p, ok := s.passengers[id]; ok {
			cp := *p
			cp.Owner = s.owner(p.UserID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *FakeStore) UpdatePassenger(_ context.Context, p *ridecache.Passenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.passengers[p.ID]; !ok {
		return ridecache.ErrNotFound
	}
	cp := *p
	cp.Owner = nil
	s.passengers[p.ID] = &cp
	return nil
}

func (s *FakeStore) DeletePassenger(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.passengers[id]; !ok {
		return ridecache.ErrNotFound
	}
	delete(s.passengers, id)
	return nil
}

// --- RiderStore ---

func (s *FakeStore) CreateRider(_ context.Context, r *ridecache.Rider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r.ID = s.id()
	cp := *r
	s.riders[r.ID] = &cp
	return nil
}

func (s *FakeStore) GetRider(_ context.Context, id int64) (*ridecache.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.riders[id]
	if !ok {
		return nil, ridecache.ErrNotFound
	}
	cp := *r
	cp.Owner = s.owner(r.UserID)
	return &cp, nil
}

func (s *FakeStore) ListRiders(_ context.Context) ([]*ridecache.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*ridecache.Rider, 0, len(s.riders))
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.riders[id]; ok {
			cp := *r
			cp.Owner = s.owner(r.UserID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *FakeStore) UpdateRider(_ context.Context, r *ridecache.Rider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.riders[r.ID]; !ok {
		return ridecache.ErrNotFound
	}
	cp := *r
	cp.Owner = nil
	s.riders[r.ID] = &cp
	return nil
}

func (s *FakeStore) DeleteRider(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.riders[id]; !ok {
		return ridecache.ErrNotFound
	}
	delete(s.riders, id)
	return nil
}

// --- EventStore ---

func (s *FakeStore) InsertEvents(_ context.Context, events []ridecache.CacheEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *FakeStore) EventTotals(_ context.Context) ([]storage.EventTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	counts := make(map[[2]string]int64)
	for _, e := range s.events {
		counts[[2]string{string(e.Kind), e.Event}]++
	}
	out := make([]storage.EventTotal, 0, len(counts))
	for k, n := range counts {
		out = append(out, storage.EventTotal{Kind: k[0], Event: k[1], Count: n})
	}
	return out, nil
}

// --- Store ---

func (s *FakeStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

func (s *FakeStore) Close() error { return nil }
