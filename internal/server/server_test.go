package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ridecache "github.com/eugener/ridecache/internal"
	"github.com/eugener/ridecache/internal/app"
	"github.com/eugener/ridecache/internal/cache"
	"github.com/eugener/ridecache/internal/testutil"
)

type testServer struct {
	handler http.Handler
	store   *testutil.FakeStore
	cache   cache.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem, err := cache.NewMemory(1000, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	store := testutil.NewFakeStore()
	store.SeedUser(ridecache.User{ID: 1, Email: "u1@x.com", FirstName: "One"})
	store.SeedUser(ridecache.User{ID: 2, Email: "u2@x.com", FirstName: "Two"})
	store.SeedPassenger(ridecache.Passenger{ID: 5, PassengerID: "PAX-5", UserID: 2})
	store.SeedRider(ridecache.Rider{ID: 5, UserID: 1})

	h := New(Deps{
		Cache: app.New(store, mem, app.Options{}),
		Store: store,
	})
	return &testServer{handler: h, store: store, cache: mem}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestReadyzFailing(t *testing.T) {
	t.Parallel()
	mem, err := cache.NewMemory(10, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	store := testutil.NewFakeStore()
	h := New(Deps{
		Cache:      app.New(store, mem, app.Options{}),
		Store:      store,
		ReadyCheck: func(context.Context) error { return errors.New("db down") },
	})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "client-id-1")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "client-id-1" {
		t.Errorf("X-Request-Id = %q, want client-supplied value preserved", got)
	}
}

func TestListUsersCacheHeader(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/users/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	time.Sleep(50 * time.Millisecond)

	rec = ts.do(t, http.MethodGet, "/v1/users/", "")
	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("X-Cache = %q, want HIT", got)
	}

	var views []ridecache.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Errorf("users = %d, want 2", len(views))
	}
}

func TestGetPassengerFlattensOwner(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/passengers/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var v ridecache.PassengerView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.UserEmail != "u2@x.com" {
		t.Errorf("user_email = %q, want u2@x.com", v.UserEmail)
	}
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/users/404", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetUserInvalidID(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/users/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateUser(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/users/", `{"email":"new@x.com","first_name":"New"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var v ridecache.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.ID == 0 || v.Email != "new@x.com" {
		t.Errorf("created user = %+v", v)
	}
}

func TestCreateUserMissingEmail(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/users/", `{"first_name":"No"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// A user write must land on the next list read; the stale cached list may
// not be served.
func TestCreateUserInvalidatesList(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/v1/users/", "")
	time.Sleep(50 * time.Millisecond)
	if rec := ts.do(t, http.MethodGet, "/v1/users/", ""); rec.Header().Get("X-Cache") != "HIT" {
		t.Fatal("list should be cached before the write")
	}

	if rec := ts.do(t, http.MethodPost, "/v1/users/", `{"email":"w@x.com"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rec.Code)
	}
	time.Sleep(50 * time.Millisecond)

	rec := ts.do(t, http.MethodGet, "/v1/users/", "")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Error("list read after a write should miss")
	}
	var views []ridecache.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Errorf("users = %d, want 3 after create", len(views))
	}
}

func TestUpdateUserPartial(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/v1/users/1", `{"phone_number":"555-0101"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var v ridecache.UserView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.PhoneNumber != "555-0101" {
		t.Errorf("phone = %q, want updated", v.PhoneNumber)
	}
	if v.Email != "u1@x.com" {
		t.Errorf("email = %q, unset fields must be preserved", v.Email)
	}
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/v1/users/2", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := ts.do(t, http.MethodGet, "/v1/users/2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("deleted user still readable: %d", rec.Code)
	}
}

func TestCreatePassengerRequiresUser(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/passengers/", `{"passenger_id":"PAX-9"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdatePassengerOwnerImmutable(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/v1/passengers/5", `{"user_id":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// A profile write must invalidate the owning user's cached record even
// though user payloads embed no profile data.
func TestPassengerWriteInvalidatesOwner(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/v1/users/2", "")
	ts.do(t, http.MethodGet, "/v1/users/1", "")
	time.Sleep(50 * time.Millisecond)

	rec := ts.do(t, http.MethodPut, "/v1/passengers/5", `{"home_address":"1 Main St"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d, body = %s", rec.Code, rec.Body.String())
	}
	time.Sleep(50 * time.Millisecond)

	if rec := ts.do(t, http.MethodGet, "/v1/users/2", ""); rec.Header().Get("X-Cache") != "MISS" {
		t.Error("owning user's cached record should have been invalidated")
	}
	if rec := ts.do(t, http.MethodGet, "/v1/users/1", ""); rec.Header().Get("X-Cache") != "HIT" {
		t.Error("unrelated user's cached record should have survived")
	}
}

func TestDeleteRiderInvalidatesExactKeys(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ctx := context.Background()

	ts.do(t, http.MethodGet, "/v1/riders/", "")
	ts.do(t, http.MethodGet, "/v1/riders/5", "")
	ts.do(t, http.MethodGet, "/v1/passengers/5", "")
	time.Sleep(50 * time.Millisecond)

	rec := ts.do(t, http.MethodDelete, "/v1/riders/5", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d", rec.Code)
	}
	time.Sleep(50 * time.Millisecond)

	for _, key := range []string{"rider_list", "rider_5", "user_list", "user_1"} {
		if _, ok, _ := ts.cache.Get(ctx, key); ok {
			t.Errorf("key %q should be gone", key)
		}
	}
	if _, ok, _ := ts.cache.Get(ctx, "passenger_5"); !ok {
		t.Error("passenger_5 is outside the blast radius and should survive")
	}
}

func TestWriteSucceedsWhenCacheDown(t *testing.T) {
	t.Parallel()
	store := testutil.NewFakeStore()
	store.SeedUser(ridecache.User{ID: 1, Email: "u1@x.com"})
	down := &testutil.DownCache{Err: errors.New("connection refused")}
	h := New(Deps{
		Cache: app.New(store, down, app.Options{}),
		Store: store,
	})

	req := httptest.NewRequest(http.MethodPut, "/v1/users/1", strings.NewReader(`{"first_name":"X"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("write should succeed despite cache failure, got %d", rec.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/users/", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
