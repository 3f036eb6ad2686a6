// Package redis opens go-redis clients with retry and exposes a health
// probe. The identity server uses Redis to share failed login counters
// between instances.
package redis
