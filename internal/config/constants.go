package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Session code allocation
const (
	SessionCodeLength = 6
	MaxCodeAttempts   = 10
)

// Scorer invocation policy: each attempt runs under its own timeout, the
// whole computation (attempts plus backoff) under the total timeout.
const (
	ScorerAttemptTimeout = 10 * time.Second
	ScorerTotalTimeout   = 45 * time.Second
	ScorerMaxAttempts    = 3
	ScorerInitialBackoff = 500 * time.Millisecond
)

// Deadline for the session writes that record a computation outcome. These
// run detached from any request, so they carry their own timeout.
const ResultWriteTimeout = 5 * time.Second
