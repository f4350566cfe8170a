package daemon

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIOptions configures the API server.
// Use NewAPIOptions to create one.
type APIOptions struct {
	CORS            CORSConfig
	ShutdownTimeout time.Duration
}

// CORSConfig holds the cross-origin settings applied when Enabled is set.
type CORSConfig struct {
	Enabled bool

	// AllowCredentials is ignored when AllowOrigins contains "*".
	AllowCredentials bool

	AllowedHeaders []string
	AllowMethods   []string
	AllowOrigins   []string
	ExposedHeaders []string

	// MaxAge is how long browsers may cache a preflight response.
	MaxAge time.Duration
}

// APIOption configures APIOptions. Later options override earlier ones.
type APIOption func(*APIOptions) error

// NewAPIOptions applies opts over the defaults. Nil options are skipped.
func NewAPIOptions(opts ...APIOption) (APIOptions, error) {
	options := APIOptions{
		CORS: CORSConfig{
			AllowMethods:     DefaultCORSAllowMethods(),
			AllowedHeaders:   DefaultCORSAllowHeaders(),
			AllowCredentials: DefaultCORSAllowCredentials(),
			MaxAge:           DefaultCORSMaxAge(),
		},
		ShutdownTimeout: DefaultAPIShutdownTimeout(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return APIOptions{}, err
		}
	}

	if err := options.CORS.validate(); err != nil {
		return APIOptions{}, err
	}

	return options, nil
}

// validate rejects CORS enabled without any allowed origin.
func (c CORSConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.AllowOrigins) == 0 {
		return fmt.Errorf("CORS is enabled but no origins are allowed")
	}
	return nil
}

// WithCORSEnabled enables or disables CORS support.
func WithCORSEnabled(enabled bool) APIOption {
	return func(o *APIOptions) error {
		o.CORS.Enabled = enabled
		return nil
	}
}

// WithCORSAllowHeaders sets the request headers clients may send.
func WithCORSAllowHeaders(headers []string) APIOption {
	return func(o *APIOptions) error {
		o.CORS.AllowedHeaders = headers
		return nil
	}
}

// WithCORSAllowOrigins sets the allowed origins for CORS requests.
// Origins are trimmed, blank origins are rejected.
func WithCORSAllowOrigins(origins []string) APIOption {
	return func(o *APIOptions) error {
		trimmed := make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "" {
				return fmt.Errorf("CORS origin cannot be empty")
			}
			trimmed = append(trimmed, origin)
		}
		o.CORS.AllowOrigins = trimmed
		return nil
	}
}

// WithCORSAllowMethods sets the allowed HTTP methods, normalized to upper case.
func WithCORSAllowMethods(methods []string) APIOption {
	return func(o *APIOptions) error {
		normalized := make([]string, 0, len(methods))
		for _, m := range methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m == "" {
				return fmt.Errorf("CORS method cannot be empty")
			}
			normalized = append(normalized, m)
		}
		o.CORS.AllowMethods = normalized
		return nil
	}
}

// WithCORSAllowCredentials sets whether credentials are allowed in CORS requests.
func WithCORSAllowCredentials(allowed bool) APIOption {
	return func(o *APIOptions) error {
		o.CORS.AllowCredentials = allowed
		return nil
	}
}

// WithCORSExposeHeaders sets the response headers clients may read.
func WithCORSExposeHeaders(headers []string) APIOption {
	return func(o *APIOptions) error {
		o.CORS.ExposedHeaders = headers
		return nil
	}
}

// WithCORSMaxAge sets how long browsers can cache CORS preflight responses.
func WithCORSMaxAge(maxAge time.Duration) APIOption {
	return func(o *APIOptions) error {
		o.CORS.MaxAge = maxAge
		return nil
	}
}

// WithShutdownTimeout sets how long Start waits for in-flight requests when stopping.
func WithShutdownTimeout(timeout time.Duration) APIOption {
	return func(o *APIOptions) error {
		if timeout <= 0 {
			return fmt.Errorf("shutdown timeout must be positive, got %v", timeout)
		}
		o.ShutdownTimeout = timeout
		return nil
	}
}

// DefaultCORSAllowHeaders returns the CORS safelisted request headers.
func DefaultCORSAllowHeaders() []string {
	return []string{
		"Accept",
		"Accept-Language",
		"Content-Language",
		"Content-Type",
		"Range",
	}
}

// DefaultCORSAllowMethods returns the HTTP methods used by the API.
func DefaultCORSAllowMethods() []string {
	return []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}
}

// DefaultCORSAllowCredentials returns the default CORS 'allow credentials' setting.
func DefaultCORSAllowCredentials() bool {
	return false
}

// DefaultCORSMaxAge returns the default preflight cache duration.
func DefaultCORSMaxAge() time.Duration {
	return 5 * time.Minute
}

// DefaultAPIShutdownTimeout returns the default graceful shutdown timeout.
func DefaultAPIShutdownTimeout() time.Duration {
	return 5 * time.Second
}

// validateAddr checks addr is "host:port" with a numeric port in range or a named service.
func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}

	if port == "" {
		return fmt.Errorf("address missing port")
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return fmt.Errorf("invalid address port: %s", port)
		}
		return nil
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("address port out of range: %d", n)
	}

	return nil
}
