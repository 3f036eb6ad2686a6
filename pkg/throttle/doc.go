// Package throttle limits failed local login attempts.
//
// Each key (normally a normalised username plus the client IP, see Key)
// has a fixed-window failure counter. Check refuses a key whose counter has
// reached Config.MaxAttempts, Fail records a rejected attempt and Reset
// clears the counter after a successful login.
//
// Two stores are provided: MemoryStore for single-instance deployments and
// RedisStore, which shares counters between instances using INCR with an
// expiry set on the first hit of a window.
//
//	store := throttle.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := throttle.New(store, throttle.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	key := throttle.Key(username, clientip.GetIP(r))
//	if err := limiter.Check(ctx, key); errors.Is(err, throttle.ErrThrottled) {
//		// render a generic error without calling the user service
//	}
package throttle
