package sqlite

import (
	"context"
	"encoding/json"
	"testing"
)

func newStore(t *testing.T) *KVStore {
	t.Helper()
	kv, err := NewKVStore(":memory:")
	if err != nil {
		t.Fatalf("NewKVStore() failed: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSetGetRoundTrip(t *testing.T) {
	kv := newStore(t)
	ctx := context.Background()

	value := json.RawMessage(`{"01-01":{"id":"01-01"}}`)
	if err := kv.Set(ctx, "days", value); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, ok, err := kv.Get(ctx, "days")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok {
		t.Fatal("Get() reported key missing after Set()")
	}
	if string(got) != string(value) {
		t.Errorf("value: got %s, want %s", got, value)
	}
}

func TestGetMissingKey(t *testing.T) {
	kv := newStore(t)

	got, ok, err := kv.Get(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Get() on missing key must not error: %v", err)
	}
	if ok || got != nil {
		t.Errorf("missing key: got (%s, %v), want (nil, false)", got, ok)
	}
}

func TestSetOverwrites(t *testing.T) {
	kv := newStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "view_mode", json.RawMessage(`"calendar"`)); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, "view_mode", json.RawMessage(`"list"`)); err != nil {
		t.Fatal(err)
	}

	got, _, err := kv.Get(ctx, "view_mode")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `"list"` {
		t.Errorf("overwrite: got %s", got)
	}
}

func TestDelete(t *testing.T) {
	kv := newStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "welcome_shown", json.RawMessage(`true`)); err != nil {
		t.Fatal(err)
	}
	if err := kv.Delete(ctx, "welcome_shown"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "welcome_shown"); ok {
		t.Error("key still present after Delete()")
	}

	// Deleting an absent key is not an error.
	if err := kv.Delete(ctx, "welcome_shown"); err != nil {
		t.Errorf("repeat Delete() failed: %v", err)
	}
}
