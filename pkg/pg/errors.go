package pg

import "errors"

var (
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, set DATABASE_URL")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrHealthcheckFailed        = errors.New("postgres healthcheck failed")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
)
