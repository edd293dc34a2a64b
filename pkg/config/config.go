package config

import "os"

// Backend names for the ledger store.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds runtime configuration for the ledger and authorization engine.
type Config struct {
	Backend      string
	DatabasePath string
	DatabaseURL  string
	RedisAddr    string
	AuthorityID  string
	// ProfilesDir, when set, points at a directory of authority profile YAML
	// files; Profile selects which one to load.
	ProfilesDir string
	Profile     string
	LogLevel    string
}

// Load loads configuration from environment variables.
func Load() *Config {
	backend := os.Getenv("FIDES_BACKEND")
	if backend == "" {
		backend = BackendMemory
	}

	dbPath := os.Getenv("FIDES_DB_PATH")
	if dbPath == "" {
		dbPath = "fides.db"
	}

	dbURL := os.Getenv("FIDES_DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://fides@localhost:5432/fides?sslmode=disable"
	}

	authority := os.Getenv("FIDES_AUTHORITY_ID")
	if authority == "" {
		authority = "GOV-DEMO-001"
	}

	profile := os.Getenv("FIDES_PROFILE")
	if profile == "" {
		profile = "demo"
	}

	logLevel := os.Getenv("FIDES_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		Backend:      backend,
		DatabasePath: dbPath,
		DatabaseURL:  dbURL,
		RedisAddr:    os.Getenv("FIDES_REDIS_ADDR"),
		AuthorityID:  authority,
		ProfilesDir:  os.Getenv("FIDES_PROFILES_DIR"),
		Profile:      profile,
		LogLevel:     logLevel,
	}
}
