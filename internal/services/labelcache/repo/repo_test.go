package repo

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"danmood/internal/platform/store"
	"danmood/internal/services/labelcache/domain"
)

var _ domain.Repo = (*sqlRepo)(nil)

// roundTrip exercises any Repo implementation
func roundTrip(t *testing.T, r domain.Repo) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := r.Get(ctx, "wis_label_embeds:m:4:deadbeef"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	in := domain.Entry{Vectors: [][]float64{{0.5, -0.25}, {1, 0}}, CreatedAt: time.Unix(1_700_000_000, 0)}
	if err := r.Put(ctx, "wis_label_embeds:m:4:deadbeef", in); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := r.Get(ctx, "wis_label_embeds:m:4:deadbeef")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got.Vectors, in.Vectors) || !got.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("got %+v want %+v", got, in)
	}

	in.Vectors = [][]float64{{2, 2}, {3, 3}}
	if err := r.Put(ctx, "wis_label_embeds:m:4:deadbeef", in); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = r.Get(ctx, "wis_label_embeds:m:4:deadbeef")
	if !reflect.DeepEqual(got.Vectors, in.Vectors) {
		t.Fatalf("overwrite got %+v", got.Vectors)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	roundTrip(t, m)

	v := [][]float64{{1}}
	_ = m.Put(context.Background(), "k", domain.Entry{Vectors: v})
	v[0][0] = 9
	e, _, _ := m.Get(context.Background(), "k")
	if e.Vectors[0][0] != 1 {
		t.Fatal("memory repo must copy vectors")
	}
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Lite: store.LiteConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "labels.db"),
	}})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(ctx) })

	if err := Migrate(ctx, st.Lite, SQLite); err != nil {
		t.Fatal(err)
	}
	// idempotent
	if err := Migrate(ctx, st.Lite, SQLite); err != nil {
		t.Fatal(err)
	}
	roundTrip(t, NewSQL(SQLite).Bind(st.Lite))
}

// mapKV is an in-memory store.KV recording ttls
type mapKV struct {
	mu   sync.Mutex
	m    map[string][]byte
	ttls map[string]time.Duration
}

func (k *mapKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.m[key]
	return b, ok, nil
}

func (k *mapKV) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key], k.ttls[key] = val, ttl
	return nil
}

func (k *mapKV) Del(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

var _ store.KV = (*mapKV)(nil)

func TestKV(t *testing.T) {
	kv := &mapKV{m: map[string][]byte{}, ttls: map[string]time.Duration{}}
	roundTrip(t, NewKV(kv, 24*time.Hour))
	if kv.ttls["wis_label_embeds:m:4:deadbeef"] != 24*time.Hour {
		t.Fatalf("ttl = %v", kv.ttls)
	}

	kv.m["bad"] = []byte("{")
	if _, _, err := NewKV(kv, 0).Get(context.Background(), "bad"); err == nil {
		t.Fatal("corrupt entry should error")
	}
}
