package pgdig

import "time"

const ConfigVersion = 1

// Replication defaults
const (
	DefaultConnString     = "host=localhost user=postgres dbname=postgres replication=database"
	DefaultSlotName       = "pgdig"
	DefaultStatusInterval = 10 * time.Second
	DefaultBufferSize     = 64
)

// Log file defaults
const (
	DefaultAppDir        = ".pgdig"
	DefaultLogDir        = "logs"
	DefaultLogFileName   = "pgdig.log"
	DefaultLogMaxSize    = 100
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
	DefaultLogLevel      = "info"
)
