package config

import "time"

// Config is the top-level configuration structure for vmflow.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Executor ExecutorConfig `yaml:"executor"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Plans    PlansConfig    `yaml:"plans"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// StoreBackend selects the shared state store implementation.
type StoreBackend string

const (
	// StoreBackendRedis uses a Redis server shared by every vmflow process.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendMemory keeps state in process memory. Single-process
	// development and tests only: other instances cannot observe it.
	StoreBackendMemory StoreBackend = "memory"
)

// StoreConfig defines the shared state store connection.
type StoreConfig struct {
	Backend   StoreBackend `yaml:"backend,omitempty"`   // redis or memory (default: redis)
	Address   string       `yaml:"address,omitempty"`   // Redis address (default: localhost:6379)
	Password  string       `yaml:"password,omitempty"`  // Redis password (default: none)
	DB        int          `yaml:"db,omitempty"`        // Redis database number (default: 0)
	KeyPrefix string       `yaml:"keyPrefix,omitempty"` // Prefix for all keys (default: vmflow)
}

// ExecutorConfig defines how the external migration and restart executors
// are invoked. Both are opaque programs addressed by path; vmflow only
// interprets their exit status.
type ExecutorConfig struct {
	MigratePath string        `yaml:"migratePath,omitempty"` // Path to the migration executor binary
	RestartPath string        `yaml:"restartPath,omitempty"` // Path to the restart executor binary
	Timeout     time.Duration `yaml:"timeout,omitempty"`     // Per-invocation timeout (default: 10m)
}

// GatewayConfig defines the realtime WebSocket gateway endpoint.
type GatewayConfig struct {
	Host      string `yaml:"host,omitempty"`      // Host to bind to (default: localhost)
	Port      int    `yaml:"port,omitempty"`      // Port for the gateway (default: 8590)
	JWTSecret string `yaml:"jwtSecret,omitempty"` // HMAC secret for bearer token validation
}

// PlansConfig defines where declarative plan documents live.
type PlansConfig struct {
	Directory string `yaml:"directory,omitempty"` // Directory holding plan YAML files
}

// NotifyConfig defines the completion notification channel.
type NotifyConfig struct {
	Channel string `yaml:"channel,omitempty"` // Pub/sub channel for completion reports
}
