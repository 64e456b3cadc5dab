package config

// JWTConfig holds the settings for validating session tokens issued by the
// campus identity service. This service only verifies; it never signs.
type JWTConfig struct {
	Secret   string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer   string `env:"JWT_ISSUER" env-default:"campus-link"`
	Audience string `env:"JWT_AUDIENCE" env-default:"campus-link"`
}
