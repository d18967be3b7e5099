// Package config reads the process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for every setting.
const (
	DefaultPort                = 8002
	DefaultCORSOrigins         = "http://localhost:3000"
	DefaultMaxImageSize        = 50 * 1024 * 1024
	DefaultMaxDimension        = 8000
	DefaultPreviewMaxDimension = 1200
	DefaultRequestTimeout      = 30 * time.Second
	DefaultLogLevel            = "info"
)

// Config holds the runtime settings shared by the MCP server, the HTTP API
// and the CLI.
type Config struct {
	// Port is the HTTP listen port (PORT).
	Port int

	// CORSOrigins lists the allowed browser origins (CORS_ORIGINS,
	// comma separated). "*" allows any origin.
	CORSOrigins []string

	// MaxImageSize caps the decoded image payload in bytes (MAX_IMAGE_SIZE).
	MaxImageSize int64

	// MaxDimension caps the width and height of a source image
	// (MAX_DIMENSION).
	MaxDimension int

	// PreviewMaxDimension is the longest side in preview mode
	// (PREVIEW_MAX_DIMENSION).
	PreviewMaxDimension int

	// RequestTimeout bounds a single HTTP request (REQUEST_TIMEOUT, in ms).
	RequestTimeout time.Duration

	// LogLevel is one of debug, info, warn or error (PIXELATOR_LOG_LEVEL).
	LogLevel string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Port:                DefaultPort,
		CORSOrigins:         splitOrigins(DefaultCORSOrigins),
		MaxImageSize:        DefaultMaxImageSize,
		MaxDimension:        DefaultMaxDimension,
		PreviewMaxDimension: DefaultPreviewMaxDimension,
		RequestTimeout:      DefaultRequestTimeout,
		LogLevel:            DefaultLogLevel,
	}
}

// Load reads the configuration from the process environment.
func Load() Config {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the configuration through lookup. Unset, malformed or
// non-positive numbers keep their defaults.
func FromLookup(lookup func(string) (string, bool)) Config {
	cfg := Default()

	cfg.Port = positiveInt(lookup, "PORT", cfg.Port)
	cfg.MaxImageSize = int64(positiveInt(lookup, "MAX_IMAGE_SIZE", int(cfg.MaxImageSize)))
	cfg.MaxDimension = positiveInt(lookup, "MAX_DIMENSION", cfg.MaxDimension)
	cfg.PreviewMaxDimension = positiveInt(lookup, "PREVIEW_MAX_DIMENSION", cfg.PreviewMaxDimension)
	if ms := positiveInt(lookup, "REQUEST_TIMEOUT", 0); ms > 0 {
		cfg.RequestTimeout = time.Duration(ms) * time.Millisecond
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.CORSOrigins = splitOrigins(v)
	}
	if v, ok := lookup("PIXELATOR_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	return cfg
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// MaxBodyBytes bounds an HTTP request body: the base64 form of the largest
// allowed image plus room for the JSON envelope.
func (c Config) MaxBodyBytes() int64 {
	return c.MaxImageSize*4/3 + 1<<20
}

func positiveInt(lookup func(string) (string, bool), key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
