package cache

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestMemory_GetSetDelete(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// Get non-existent.
	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Error("should not find missing key")
	}

	// Set and get.
	m.Set(ctx, "user_1", []byte("v1"), time.Minute)
	// otter processes Set asynchronously; wait briefly.
	time.Sleep(50 * time.Millisecond)

	val, ok, err := m.Get(ctx, "user_1")
	if err != nil || !ok {
		t.Fatalf("should find user_1, ok=%v err=%v", ok, err)
	}
	if string(val) != "v1" {
		t.Errorf("value = %q, want %q", val, "v1")
	}

	// Delete, then delete again: absent key must be a no-op.
	if err := m.Delete(ctx, "user_1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, "user_1"); err != nil {
		t.Errorf("deleting absent key should not error: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "user_1"); ok {
		t.Error("should not find deleted key")
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Hour) // long default TTL
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// Set with very short per-entry TTL; no explicit delete follows.
	m.Set(ctx, "expiring", []byte("data"), 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, "expiring"); ok {
		t.Error("entry should be expired")
	}
}

func TestMemory_TTLLongerThanDefault(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, 100*time.Millisecond) // short default TTL
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// Per-entry TTL well past the default must be honored in full.
	m.Set(ctx, "long_lived", []byte("data"), time.Minute)
	time.Sleep(300 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, "long_lived"); !ok {
		t.Error("entry with a long per-entry TTL evicted at the default TTL")
	}
}

func TestMemory_SetZeroTTLUsesDefault(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "defaulted", []byte("data"), 0)
	time.Sleep(50 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, "defaulted"); !ok {
		t.Error("zero TTL should fall back to the default, not expire immediately")
	}
}

func TestMemory_Scan(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "user_list", []byte("a"), time.Minute)
	m.Set(ctx, "user_1", []byte("b"), time.Minute)
	m.Set(ctx, "rider_1", []byte("c"), time.Minute)
	m.Set(ctx, "gone", []byte("d"), 30*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	keys, err := m.Scan(ctx, "*")
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(keys)
	want := []string{"rider_1", "user_1", "user_list"}
	if !slices.Equal(keys, want) {
		t.Errorf("Scan(*) = %v, want %v (expired keys filtered)", keys, want)
	}

	keys, err = m.Scan(ctx, "user_*")
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(keys)
	if want := []string{"user_1", "user_list"}; !slices.Equal(keys, want) {
		t.Errorf("Scan(user_*) = %v, want %v", keys, want)
	}
}

func TestMemory_Purge(t *testing.T) {
	t.Parallel()
	m, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"), time.Minute)
	m.Set(ctx, "b", []byte("2"), time.Minute)
	time.Sleep(50 * time.Millisecond)

	m.Purge(ctx)

	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("purge should remove all keys")
	}
	if _, ok, _ := m.Get(ctx, "b"); ok {
		t.Error("purge should remove all keys")
	}
}
