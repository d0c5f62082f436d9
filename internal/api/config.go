package api

import "time"

type Config struct {
	HTTPAddr        string        `envconfig:"WSD_HTTP_ADDR" default:"0.0.0.0:8080"`
	DBDSN           string        `envconfig:"WSD_DB_DSN" required:"true"`
	DBMaxConns      int32         `envconfig:"WSD_DB_MAX_CONNS" default:"20"`
	MetricsAddr     string        `envconfig:"WSD_METRICS_ADDR" default:"0.0.0.0:9090"`
	LogLevel        string        `envconfig:"WSD_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"WSD_SHUTDOWN_TIMEOUT" default:"30s"`

	// Container engine endpoint; empty means the client's default
	// (DOCKER_HOST or the local socket).
	DockerHost    string        `envconfig:"WSD_DOCKER_HOST" default:""`
	EngineTimeout time.Duration `envconfig:"WSD_ENGINE_TIMEOUT" default:"30s"`
	CopyTimeout   time.Duration `envconfig:"WSD_COPY_TIMEOUT" default:"10m"`
	UtilityImage  string        `envconfig:"WSD_UTILITY_IMAGE" default:"alpine:3.20"`

	// Network all workspace containers join; the proxy reaches them by
	// container name over it.
	Network   string        `envconfig:"WSD_NETWORK" default:"workspaces"`
	MountPath string        `envconfig:"WSD_MOUNT_PATH" default:"/home/coder/workspace"`
	StopGrace time.Duration `envconfig:"WSD_STOP_GRACE" default:"10s"`
}
