// Package location provides the storage locations a memo cache persists its
// snapshot to.
//
// A [Location] holds exactly one snapshot and is read and written whole. Four
// implementations are provided:
//
//   - [NewFile]: a regular file, written atomically through a temp file and
//     rename. The filesystem is an [afero.Fs], so tests can run in memory.
//   - [NewSQLite]: a row in a SQLite database using [modernc.org/sqlite]
//     (pure Go, no CGO). Several snapshots can share one database file.
//   - [NewRedis]: a string key in Redis using [github.com/redis/go-redis/v9].
//     The caller owns the client.
//   - [NewS3] and [NewS3FromConfig]: a single S3 object using the AWS SDK v2.
//
// [NewChain] combines locations: it loads from the first one holding a
// snapshot and saves to all of them, e.g. a local file mirrored to Redis.
// [NewRetry] retries transient failures of a remote location with exponential
// backoff.
//
// Load reports [ErrNotFound] when nothing has been saved yet. A resource of
// the wrong kind (a directory, a Redis hash, an S3 prefix) is reported with an
// error matching [ErrInvalid], on both Load and Save.
package location
