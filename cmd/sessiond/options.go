package main

// Options are the sessiond command line flags. Every flag can also be set
// through the environment, including from a .env file in the working directory.
type Options struct {
	Addr        string `short:"a" long:"addr" env:"SESSIOND_ADDR" default:":8080" description:"listen address"`
	Config      string `short:"c" long:"config" env:"SESSIOND_CONFIG" description:"TOML config file"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"redis address for persistence and login throttling"`
	Miniredis   bool   `long:"miniredis" env:"SESSIOND_MINIREDIS" description:"run an embedded miniredis when no redis address is set"`
	StateDir    string `long:"state-dir" env:"SESSIOND_STATE_DIR" description:"directory for file-backed session persistence"`
	User        string `long:"user" env:"SESSIOND_USER" default:"alice" description:"demo account identifier"`
	Password    string `long:"password" env:"SESSIOND_PASSWORD" default:"correct-horse" description:"demo account password"`
	Role        string `long:"role" env:"SESSIOND_ROLE" default:"admin" description:"demo account role"`
	AuditLog    bool   `long:"audit-log" env:"SESSIOND_AUDIT_LOG" description:"write audit events to stdout as JSON lines"`
	OtelMetrics bool   `long:"otel-metrics" env:"SESSIOND_OTEL_METRICS" description:"serve OpenTelemetry instruments at /metrics/otel"`
	GinMode     string `long:"gin-mode" env:"GIN_MODE" default:"release" description:"gin mode (debug, release, test)"`
}
