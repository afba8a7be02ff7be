// internal/util/util.go
// Server configuration: defaults, an optional JSON file, then environment
// overrides (a .env file is honoured when present).
package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/erilali/roomchat/internal/logger"
	"github.com/erilali/roomchat/internal/message"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

// Duration is a time.Duration that reads Go duration strings ("5s") or
// plain seconds from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value * float64(time.Second)))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every runtime setting of the server.
type Config struct {
	TCPAddr             string           `json:"tcp_addr"`
	HTTPAddr            string           `json:"http_addr"`
	Framing             string           `json:"framing"`
	MaxFrameSize        int              `json:"max_frame_size"`
	SendQueueSize       int              `json:"send_queue_size"`
	WriteTimeout        Duration         `json:"write_timeout"`
	KeepaliveInterval   Duration         `json:"keepalive_interval"`
	VerifyInterval      Duration         `json:"verify_interval"`
	KeepaliveTimeout    Duration         `json:"keepalive_timeout"`
	RegistrationTimeout Duration         `json:"registration_timeout"`
	ShutdownTimeout     Duration         `json:"shutdown_timeout"`
	NatsURL             string           `json:"nats_url"`
	EventRetention      Duration         `json:"event_retention"`
	Logger              logger.LogConfig `json:"logger"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		TCPAddr:             ":2787",
		HTTPAddr:            ":8080",
		Framing:             string(message.FramingLength),
		MaxFrameSize:        message.DefaultMaxFrameSize,
		SendQueueSize:       256,
		WriteTimeout:        Duration(10 * time.Second),
		KeepaliveInterval:   Duration(5 * time.Second),
		VerifyInterval:      Duration(10 * time.Second),
		KeepaliveTimeout:    Duration(10 * time.Second),
		RegistrationTimeout: Duration(30 * time.Second),
		ShutdownTimeout:     Duration(10 * time.Second),
		NatsURL:             nats.DefaultURL,
		EventRetention:      Duration(30 * time.Minute),
		Logger:              logger.DefaultLogConfig(),
	}
}

// Sanitize replaces unusable values with defaults.
func (c Config) Sanitize() Config {
	def := DefaultConfig()
	if c.TCPAddr == "" {
		c.TCPAddr = def.TCPAddr
	}
	if _, err := message.ParseFraming(c.Framing); err != nil {
		c.Framing = def.Framing
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = def.MaxFrameSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = def.KeepaliveInterval
	}
	if c.VerifyInterval <= 0 {
		c.VerifyInterval = def.VerifyInterval
	}
	if c.KeepaliveTimeout <= 0 {
		c.KeepaliveTimeout = def.KeepaliveTimeout
	}
	if c.RegistrationTimeout <= 0 {
		c.RegistrationTimeout = def.RegistrationTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.EventRetention <= 0 {
		c.EventRetention = def.EventRetention
	}
	return c
}

// LoadConfig builds the configuration from defaults, the JSON file at
// filePath (a missing file is not an error) and the environment.
func LoadConfig(filePath string) (Config, error) {
	config := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("loading .env: %w", err)
	}

	if filePath != "" {
		file, err := os.Open(filePath)
		switch {
		case err == nil:
			defer file.Close()
			if err := json.NewDecoder(file).Decode(&config); err != nil {
				return config.Sanitize(), fmt.Errorf("decoding %s: %w", filePath, err)
			}
		case !os.IsNotExist(err):
			return config.Sanitize(), err
		}
	}

	if err := applyEnv(&config); err != nil {
		return config.Sanitize(), err
	}
	return config.Sanitize(), nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("CHAT_TCP_ADDR"); v != "" {
		c.TCPAddr = v
	}
	if v, ok := os.LookupEnv("CHAT_HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	if v := os.Getenv("CHAT_FRAMING"); v != "" {
		c.Framing = v
	}
	if v := os.Getenv("CHAT_MAX_FRAME_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHAT_MAX_FRAME_SIZE: %w", err)
		}
		c.MaxFrameSize = n
	}
	durations := map[string]*Duration{
		"CHAT_KEEPALIVE_INTERVAL":   &c.KeepaliveInterval,
		"CHAT_VERIFY_INTERVAL":      &c.VerifyInterval,
		"CHAT_KEEPALIVE_TIMEOUT":    &c.KeepaliveTimeout,
		"CHAT_REGISTRATION_TIMEOUT": &c.RegistrationTimeout,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = Duration(d)
	}
	// An explicitly empty NATS_URL disables the event feed.
	if v, ok := os.LookupEnv("NATS_URL"); ok {
		c.NatsURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	return nil
}
