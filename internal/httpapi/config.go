package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Tensors are sent inline, so the default is 8 MiB.
var maxBodyBytes int64 = defaultMaxBodyBytes

const defaultMaxBodyBytes = 8 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// runTimeout bounds a single /run request. Zero means no additional timeout
// beyond server/connection timeouts.
var runTimeout time.Duration

// SetRunTimeout sets the /run timeout (0 disables).
func SetRunTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	runTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty lists
// fall back to permissive defaults for origins and the API's methods.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
