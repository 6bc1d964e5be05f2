package repo

import (
	"context"
	"encoding/json"
	"time"

	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/store"
	"danmood/internal/services/labelcache/domain"
)

// KV stores entries as JSON values in a key/value backend (redis)
type KV struct {
	kv  store.KV
	ttl time.Duration
}

// NewKV wraps kv; ttl 0 keeps entries forever
func NewKV(kv store.KV, ttl time.Duration) *KV { return &KV{kv: kv, ttl: ttl} }

var _ domain.Repo = (*KV)(nil)

// Get implements domain.Repo
func (r *KV) Get(ctx context.Context, key string) (domain.Entry, bool, error) {
	b, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return domain.Entry{}, false, perr.Wrap(err, perr.ErrorCodeDB, "kv label cache get")
	}
	if !ok {
		return domain.Entry{}, false, nil
	}
	var e domain.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return domain.Entry{}, false, perr.Wrapf(err, perr.ErrorCodeMalformed, "kv label cache entry %s", key)
	}
	return e, true, nil
}

// Put implements domain.Repo
func (r *KV) Put(ctx context.Context, key string, e domain.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "encode label entry")
	}
	if err := r.kv.Set(ctx, key, b, r.ttl); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "kv label cache put")
	}
	return nil
}
