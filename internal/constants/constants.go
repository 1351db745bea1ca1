package constants

import "time"

const (
	SignatureHeader = "X-Signature"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
	TopSendersLimit  = 10
	MaxTextLength    = 4096
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DBConnectMaxAttempts     = 5
	DBConnectInitialInterval = 500 * time.Millisecond
	DBConnectMaxInterval     = 5 * time.Second
)

const (
	DefaultMigrationsPath = "migrations"
)
