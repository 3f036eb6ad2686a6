// Package cache provides a generic in-memory LRU cache with optional
// per-entry expiry.
//
// The cache holds at most a fixed number of entries and evicts the least
// recently used one when a new key would exceed it. Entries older than the
// configured TTL are treated as absent and removed on the next access.
//
//	c := cache.NewLRU[string, *authn.Client](1024, cache.WithTTL(time.Minute))
//	c.Put("mvc", client)
//	if v, ok := c.Get("mvc"); ok {
//		// use v
//	}
//
// All methods are safe for concurrent use.
package cache
