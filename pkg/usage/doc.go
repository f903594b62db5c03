// Package usage stores per-user, per-calendar-month feature usage counters.
//
// Counters are created implicitly on the first increment in a month, only
// ever grow, and are kept for trend reporting. Increments are at-least-once:
// an occasional double count under retry is tolerated, and concurrent
// requests may overshoot a quota by a unit. Every backend relies on the
// datastore's native atomic increment rather than in-process locking.
//
// Backends:
//
//   - MemoryStore: process-local, for tests and development
//   - PostgresStore: pgx pool, INSERT ... ON CONFLICT DO UPDATE
//   - SQLiteStore: database/sql with modernc.org/sqlite, single-node deployments
//   - RedisStore: one hash per user and month, HINCRBY
//   - MongoStore: one document per user and month, $inc with upsert
//
// The Recorder wraps any Store with fire-and-forget increments that are
// detached from the request lifecycle:
//
//	rec := usage.NewRecorder(store, usage.WithRecorderLogger(log))
//	rec.Record(ctx, userID, usage.TypeQuotes, 1) // never blocks the caller
package usage
