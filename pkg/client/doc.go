// Package client provides authn.ClientStore implementations.
//
// MemoryStore holds clients loaded from a YAML file or built in code.
// PostgresStore keeps them in the idsrv_clients table; its schema ships as
// embedded goose migrations, see Migrations. CachedStore wraps either one in
// a bounded LRU and collapses concurrent lookups of the same client into one
// backend call.
//
//	store, err := client.LoadFile("clients.yaml")
//	if err != nil {
//		return err
//	}
//	clients := client.NewCachedStore(store, time.Minute)
package client
