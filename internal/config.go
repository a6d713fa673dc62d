package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	HTTPPort int    `env:"HTTP_PORT,default=3001"`
	GRPCPort int    `env:"GRPC_PORT,default=50051"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`
	// ClientURL lists the browser origins allowed by CORS and the websocket handshake
	ClientURL string `env:"CLIENT_URL,default=http://localhost:5173"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	StoreTimeout         time.Duration `env:"STORE_TIMEOUT,default=5s"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=100ms"`
	PageSize             int           `env:"PAGE_SIZE,default=50"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=2s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	GCInterval        time.Duration `env:"GC_INTERVAL,default=5m"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
}

// Validate reports settings go-env cannot check by itself.
func (c Config) Validate() error {
	switch {
	case len(c.JWTSecret) < 16:
		return fmt.Errorf("JWT_SECRET must be at least 16 characters, got %d", len(c.JWTSecret))
	case c.ConnectionBufferSize <= 0:
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	case c.PageSize <= 0:
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	case c.MaxMessageSize <= 0:
		return fmt.Errorf("MAX_MESSAGE_SIZE must be positive, got %d", c.MaxMessageSize)
	case c.GCInterval <= 0 || c.HeartbeatInterval <= 0:
		return fmt.Errorf("GC_INTERVAL and HEARTBEAT_INTERVAL must be positive")
	}
	return nil
}

func (c Config) HTTPAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort) }

func (c Config) GRPCAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort) }
