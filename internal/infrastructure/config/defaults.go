package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRunTimeout      = 5 * time.Minute
	DefaultBusyRetryDelay  = time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultHistoryLimit    = 50
	DefaultHistoryCap      = 500
	DefaultWSWriteTimeout  = 5 * time.Second
)
