package config

// SecurityConfig holds HTTP hardening settings
type SecurityConfig struct {
	// Per-user limits on mutating loyalty endpoints
	UserRateLimit float64 // requests per second
	UserRateBurst int

	// Per-IP limit on the whole API
	IPRateLimit float64
	IPRateBurst int

	RateLimitCleanupMin int

	CORSAllowedOrigins []string
}

// DefaultSecurityConfig returns the security configuration from the environment
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		UserRateLimit:       getEnvFloat("RATE_LIMIT_USER_RPS", 2),
		UserRateBurst:       getEnvInt("RATE_LIMIT_USER_BURST", 5),
		IPRateLimit:         getEnvFloat("RATE_LIMIT_IP_RPS", 20),
		IPRateBurst:         getEnvInt("RATE_LIMIT_IP_BURST", 40),
		RateLimitCleanupMin: getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", 10),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}
