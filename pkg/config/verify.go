package config

import "time"

// VerifyConfig holds the settings for the verification flow: token
// lifetimes, resend limits, and where token links point.
type VerifyConfig struct {
	// BaseURL is the frontend origin token links are built against.
	BaseURL string `env:"BASE_URL" env-default:"http://localhost:3000"`

	// PersistenceType selects the storage backend: "postgres" or "file".
	PersistenceType string `env:"PERSISTENCE_TYPE" env-default:"postgres"`

	// DataDir is the storage directory for the file backend.
	DataDir string `env:"DATA_DIR" env-default:"./data"`

	EmailVerificationExpiry string `env:"EMAIL_VERIFICATION_EXPIRY" env-default:"24h"`
	PasswordResetExpiry     string `env:"PASSWORD_RESET_EXPIRY" env-default:"15m"`

	ResendLimit  int64  `env:"VERIFICATION_RESEND_LIMIT" env-default:"3"`
	ResendWindow string `env:"VERIFICATION_RESEND_WINDOW" env-default:"1h"`

	// PurgeInterval controls how often dead tokens are deleted. Empty or
	// "0" disables the background sweep.
	PurgeInterval string `env:"TOKEN_PURGE_INTERVAL" env-default:"1h"`
}

// ParseEmailVerificationExpiry parses the email verification token lifetime.
func (v VerifyConfig) ParseEmailVerificationExpiry() (time.Duration, error) {
	return time.ParseDuration(v.EmailVerificationExpiry)
}

// ParsePasswordResetExpiry parses the password reset token lifetime.
func (v VerifyConfig) ParsePasswordResetExpiry() (time.Duration, error) {
	return time.ParseDuration(v.PasswordResetExpiry)
}

// ParseResendWindow parses the resend rate-limit window.
func (v VerifyConfig) ParseResendWindow() (time.Duration, error) {
	return time.ParseDuration(v.ResendWindow)
}

// ParsePurgeInterval parses the purge interval. Zero means disabled.
func (v VerifyConfig) ParsePurgeInterval() (time.Duration, error) {
	if v.PurgeInterval == "" || v.PurgeInterval == "0" {
		return 0, nil
	}
	return time.ParseDuration(v.PurgeInterval)
}
