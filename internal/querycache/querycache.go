// Package querycache bridges the UI's persisted query state onto the TTL
// cache. Each named query is stored wholesale under a namespaced key, and
// the cache contents can optionally be mirrored to a byte store so a later
// session can pick up where the last one left off.
package querycache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/raphi011/prq/internal/ttlcache"
)

// Defaults for Options fields left zero.
const (
	DefaultNamespace = "prq-query"
	DefaultTTL       = 24 * time.Hour
)

// QueryRecord is one persisted query: an opaque key, its unique hash and
// the opaque state payload the UI wants back on restore.
type QueryRecord struct {
	Key   json.RawMessage   `json:"query_key"`
	Hash  string            `json:"query_hash"`
	State json.RawMessage   `json:"state"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// Client exposes the query snapshot to persist. Implemented by the UI's
// query layer.
type Client interface {
	Snapshot() []QueryRecord
}

// Store is a byte store the bridge mirrors cache snapshots into. A missing
// key is reported via the bool, not an error.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Options configures a Bridge. The zero value gets the package defaults;
// Store stays nil unless set, which disables mirroring.
type Options struct {
	Namespace string
	TTL       time.Duration
	Store     Store
}

// Bridge adapts query records onto one cache instance under a fixed key
// namespace.
type Bridge struct {
	cache *ttlcache.Cache[QueryRecord]
	ns    string
	ttl   time.Duration
	store Store
}

// New creates a bridge around cache. The cache is owned by the caller; the
// bridge only reads and writes its own namespace.
func New(cache *ttlcache.Cache[QueryRecord], opts Options) *Bridge {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	return &Bridge{
		cache: cache,
		ns:    opts.Namespace,
		ttl:   opts.TTL,
		store: opts.Store,
	}
}

func (b *Bridge) key(hash string) string {
	return b.ns + ":" + hash
}

func (b *Bridge) prefix() string {
	return b.ns + ":"
}

// PersistClient writes every record in the client's snapshot into the
// cache, overwriting previous state for the same query. With a store
// attached, the cache's live entries are additionally serialized and
// mirrored through it.
func (b *Bridge) PersistClient(ctx context.Context, client Client) error {
	for _, rec := range client.Snapshot() {
		b.cache.SetWithTTL(b.key(rec.Hash), rec, b.ttl)
	}

	if b.store == nil {
		return nil
	}

	data, err := json.Marshal(b.cache.Entries())
	if err != nil {
		return err
	}
	return b.store.SetItem(ctx, b.ns, string(data))
}

// RestoreClient loads persisted query records from a prior session. With a
// store attached, its mirrored snapshot is restored into the cache first;
// a malformed payload is treated as no prior session, not an error. The
// returned slice is empty when nothing was persisted.
func (b *Bridge) RestoreClient(ctx context.Context) ([]QueryRecord, error) {
	if b.store != nil {
		payload, ok, err := b.store.GetItem(ctx, b.ns)
		if err != nil {
			return nil, err
		}
		if ok {
			var snapshot []ttlcache.KeyedEntry[QueryRecord]
			if err := json.Unmarshal([]byte(payload), &snapshot); err == nil {
				b.cache.Restore(snapshot)
			}
			// Unparsable mirror payloads are dropped silently; the
			// namespace scan below decides what actually survives.
		}
	}

	var records []QueryRecord
	for _, key := range b.cache.Keys() {
		if !strings.HasPrefix(key, b.prefix()) {
			continue
		}
		if rec, ok := b.cache.Get(key); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// RemoveClient deletes every namespaced record from the cache and, with a
// store attached, the mirrored snapshot too.
func (b *Bridge) RemoveClient(ctx context.Context) error {
	for _, key := range b.cache.Keys() {
		if strings.HasPrefix(key, b.prefix()) {
			b.cache.Delete(key)
		}
	}

	if b.store == nil {
		return nil
	}
	return b.store.RemoveItem(ctx, b.ns)
}
