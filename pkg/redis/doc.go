// Package redis connects to Redis and exposes the few key operations the
// service relies on: short-lived markers for webhook deduplication and
// owner-tagged locks for the scheduled alert run.
//
// Redis is optional. When REDIS_URL is empty the caller skips Connect and
// runs without deduplication or cross-instance locking.
//
//	cfg := redis.Config{}
//	if err := config.Load(&cfg); err != nil { ... }
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil { ... }
//	keys := redis.NewKeyStore(client)
//	ok, err := keys.SetNX(ctx, "webhook:evt_1", "1", 24*time.Hour)
package redis
