package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	ridecache "github.com/eugener/ridecache/internal"
)

// parseID extracts the {id} route param. Writes 400 and returns false on a
// non-numeric or non-positive value.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid id"))
		return 0, false
	}
	return id, true
}

// invalidate runs the cache invalidation for a committed write. The write
// already succeeded, so a cache failure is logged and swallowed; staleness
// self-heals at TTL expiry.
func (s *server) invalidate(r *http.Request, kind ridecache.Kind, op ridecache.Op, ref ridecache.WriteRef) {
	if err := s.deps.Cache.OnWrite(r.Context(), kind, op, ref); err != nil {
		slog.LogAttrs(r.Context(), slog.LevelWarn, "write committed, invalidation failed",
			slog.String("kind", string(kind)),
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
		)
	}
}

// --- Reads (cache-aside) ---

func (s *server) handleList(kind ridecache.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, hit, err := s.deps.Cache.List(r.Context(), kind)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, data, hit)
	}
}

func (s *server) handleItem(kind ridecache.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		data, hit, err := s.deps.Cache.Item(r.Context(), kind, id)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeRaw(w, http.StatusOK, data, hit)
	}
}

// --- Users ---

type userRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	UserType    string `json:"user_type"`
}

func (s *server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("email is required"))
		return
	}

	u := &ridecache.User{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		UserType:    req.UserType,
	}
	if err := s.deps.Store.CreateUser(r.Context(), u); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindUser, ridecache.OpCreate, ridecache.WriteRef{ID: u.ID})
	writeJSON(w, http.StatusCreated, u.View())
}

func (s *server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.deps.Store.GetUser(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.PhoneNumber != "" {
		u.PhoneNumber = req.PhoneNumber
	}
	if req.UserType != "" {
		u.UserType = req.UserType
	}
	if err := s.deps.Store.UpdateUser(r.Context(), u); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindUser, ridecache.OpUpdate, ridecache.WriteRef{ID: id})
	writeJSON(w, http.StatusOK, u.View())
}

func (s *server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	// Owned profiles cascade in the schema, so their cache keys must go too.
	pRef, rRef := s.ownedProfiles(r, id)

	if err := s.deps.Store.DeleteUser(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindUser, ridecache.OpDelete, ridecache.WriteRef{ID: id})
	if pRef != nil {
		s.invalidate(r, ridecache.KindPassenger, ridecache.OpDelete, *pRef)
	}
	if rRef != nil {
		s.invalidate(r, ridecache.KindRider, ridecache.OpDelete, *rRef)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedProfiles finds the profile records owned by a user before a cascade
// delete removes them. Lookup failures only cost cache precision, never the
// delete itself.
func (s *server) ownedProfiles(r *http.Request, userID int64) (passenger, rider *ridecache.WriteRef) {
	if ps, err := s.deps.Store.ListPassengers(r.Context()); err == nil {
		for _, p := range ps {
			if p.UserID == userID {
				passenger = &ridecache.WriteRef{ID: p.ID, OwnerID: userID}
				break
			}
		}
	}
	if rs, err := s.deps.Store.ListRiders(r.Context()); err == nil {
		for _, rd := range rs {
			if rd.UserID == userID {
				rider = &ridecache.WriteRef{ID: rd.ID, OwnerID: userID}
				break
			}
		}
	}
	return passenger, rider
}

// --- Passengers ---

type passengerRequest struct {
	PassengerID            string `json:"passenger_id"`
	UserID                 int64  `json:"user_id"`
	PreferredPaymentMethod string `json:"preferred_payment_method"`
	HomeAddress            string `json:"home_address"`
}

func (s *server) handleCreatePassenger(w http.ResponseWriter, r *http.Request) {
	var req passengerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("user_id is required"))
		return
	}

	p := &ridecache.Passenger{
		PassengerID:            req.PassengerID,
		UserID:                 req.UserID,
		PreferredPaymentMethod: req.PreferredPaymentMethod,
		HomeAddress:            req.HomeAddress,
	}
	if err := s.deps.Store.CreatePassenger(r.Context(), p); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindPassenger, ridecache.OpCreate,
		ridecache.WriteRef{ID: p.ID, OwnerID: p.UserID})
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handleUpdatePassenger(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req passengerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.deps.Store.GetPassenger(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if req.UserID != 0 && req.UserID != p.UserID {
		writeJSON(w, http.StatusBadRequest, errorResponse("user_id is immutable"))
		return
	}
	if req.PassengerID != "" {
		p.PassengerID = req.PassengerID
	}
	if req.PreferredPaymentMethod != "" {
		p.PreferredPaymentMethod = req.PreferredPaymentMethod
	}
	if req.HomeAddress != "" {
		p.HomeAddress = req.HomeAddress
	}
	if err := s.deps.Store.UpdatePassenger(r.Context(), p); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindPassenger, ridecache.OpUpdate,
		ridecache.WriteRef{ID: id, OwnerID: p.UserID})
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleDeletePassenger(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	// Fetch first: the owner ID is needed for the blast radius.
	p, err := s.deps.Store.GetPassenger(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := s.deps.Store.DeletePassenger(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindPassenger, ridecache.OpDelete,
		ridecache.WriteRef{ID: id, OwnerID: p.UserID})
	w.WriteHeader(http.StatusNoContent)
}

// --- Riders ---

type riderRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *server) handleCreateRider(w http.ResponseWriter, r *http.Request) {
	var req riderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("user_id is required"))
		return
	}

	rd := &ridecache.Rider{UserID: req.UserID}
	if err := s.deps.Store.CreateRider(r.Context(), rd); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindRider, ridecache.OpCreate,
		ridecache.WriteRef{ID: rd.ID, OwnerID: rd.UserID})
	writeJSON(w, http.StatusCreated, rd)
}

func (s *server) handleUpdateRider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req riderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rd, err := s.deps.Store.GetRider(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if req.UserID != 0 && req.UserID != rd.UserID {
		writeJSON(w, http.StatusBadRequest, errorResponse("user_id is immutable"))
		return
	}
	if err := s.deps.Store.UpdateRider(r.Context(), rd); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindRider, ridecache.OpUpdate,
		ridecache.WriteRef{ID: id, OwnerID: rd.UserID})
	writeJSON(w, http.StatusOK, rd)
}

func (s *server) handleDeleteRider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rd, err := s.deps.Store.GetRider(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := s.deps.Store.DeleteRider(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	s.invalidate(r, ridecache.KindRider, ridecache.OpDelete,
		ridecache.WriteRef{ID: id, OwnerID: rd.UserID})
	w.WriteHeader(http.StatusNoContent)
}
