// Package ttlcache provides a generic in-memory key/value cache with
// per-entry expiry, capacity-bounded eviction and hit/miss statistics.
//
// Expiry is enforced twice:
//
//   - Lazily on read: Get and Has delete an expired entry before answering,
//     so a caller never sees a stale value.
//   - Eagerly on an interval: a background sweeper removes expired entries
//     so a cache that is never read does not grow without bound.
//
// When the cache is full, inserting a new key evicts the entry with the
// oldest creation time. This is deliberately not LRU: the scan is O(n) per
// eviction, which is fine for the working sets this tool deals with
// (hundreds of entries, not millions).
//
// All operations are safe for concurrent use; the background sweeper shares
// the same mutex as the public API. Call [Cache.Destroy] on teardown to stop
// the sweeper.
package ttlcache
