// Package config holds the environment-driven configuration for the
// verification service.
//
// Each config struct maps one concern (database, email, JWT, verification
// flow) onto environment variables via cleanenv struct tags, and carries
// conversion helpers to the types the rest of the codebase consumes:
//
//	var cfg struct {
//		Db     config.DatabaseConfig
//		Email  config.EmailConfig
//		Jwt    config.JWTConfig
//		Verify config.VerifyConfig
//	}
//	if err := cleanenv.ReadEnv(&cfg); err != nil {
//		...
//	}
//	pool, err := pgxpool.New(ctx, cfg.Db.ToDatabaseURL())
//	smtp := cfg.Email.ToSMTPConfig()
//
// Durations are kept as strings in the structs and parsed on demand so a
// bad value fails loudly at startup rather than silently at first use.
package config
