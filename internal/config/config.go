package config // package config loads application configuration from environment variables

import (
	"log"  // log is used to report configuration errors and halt execution
	"os"   // os provides access to environment variables
	"time" // time provides pool lifetime durations

	"github.com/joho/godotenv" // godotenv loads a local .env file during development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and identifiers are strings; flags are
// booleans.
type Config struct {
	Env       string        // application environment (e.g. "dev", "prod")
	Port      string        // HTTP port to listen on
	DBUser    string        // database username
	DBPass    string        // database password (optional)
	DBHost    string        // database host address
	DBPort    string        // database port number
	DBName    string        // database name
	DBMaxOpen int           // connection pool size
	DBMaxLife time.Duration // maximum lifetime of a pooled connection
	JWTSecret string        // secret used to verify access tokens
	Debug     bool          // include underlying causes in error responses
	Migrate   bool          // apply the bundled schema at startup
	LogLevel  string        // debug, info, warn or error
	LogFile   string        // optional rotated log file
}

// LoadDotEnv loads variables from path (default ".env") when the file
// exists.  Variables already set in the environment win.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("config: failed to load %s: %v", path, err)
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),                                // environment (dev/test/prod)
		Port:      must("APP_PORT"),                               // port to bind the HTTP server
		DBUser:    must("DB_USER"),                                // database user
		DBPass:    os.Getenv("DB_PASS"),                           // database password (empty allowed)
		DBHost:    must("DB_HOST"),                                // database host
		DBPort:    must("DB_PORT"),                                // database port
		DBName:    must("DB_NAME"),                                // database name
		DBMaxOpen: envInt("DB_MAX_OPEN_CONNS", 25),                // pool size
		DBMaxLife: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute), // pooled connection lifetime
		JWTSecret: must("JWT_SECRET"),                             // secret used for verifying JWTs
		Debug:     envBool("APP_DEBUG", false),                    // expose error causes to clients
		Migrate:   envBool("DB_MIGRATE", false),                   // apply the bundled schema on boot
		LogLevel:  envStr("LOG_LEVEL", "info"),                    // slog level
		LogFile:   os.Getenv("LOG_FILE"),                          // rotated file output (optional)
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
