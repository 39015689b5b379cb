package config

import "time"

const (
	// DefaultGatewayPort is the default port for the realtime gateway.
	DefaultGatewayPort = 8590

	// DefaultExecutorTimeout bounds one external executor invocation. Bulk
	// migrations routinely run for minutes; ten gives slow estates headroom
	// without letting a hung executor pin the workflow forever.
	DefaultExecutorTimeout = 10 * time.Minute
)

// GetDefaultConfig returns the default configuration for vmflow.
func GetDefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Backend:   StoreBackendRedis,
			Address:   "localhost:6379",
			KeyPrefix: "vmflow",
		},
		Executor: ExecutorConfig{
			MigratePath: "/usr/local/bin/vmflow-migrate",
			RestartPath: "/usr/local/bin/vmflow-restart",
			Timeout:     DefaultExecutorTimeout,
		},
		Gateway: GatewayConfig{
			Host: "localhost",
			Port: DefaultGatewayPort,
		},
		Plans: PlansConfig{
			Directory: "plans",
		},
		Notify: NotifyConfig{
			Channel: "vmflow:notifications",
		},
	}
}
