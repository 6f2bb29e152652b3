package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time is used for duration-typed settings
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, cents for money.
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    DBUser         string        // database username
    DBPass         string        // database password (optional)
    DBHost         string        // database host address
    DBPort         string        // database port number
    DBName         string        // database name
    JWTSecret      string        // secret used to sign JWTs
    AccessTTLMin   int           // access token time‑to‑live in minutes
    RefreshTTLDays int           // refresh token time‑to‑live in days
    BcryptCost     int           // bcrypt cost for password hashing
    PriceSource    string        // per-seat price source: "show" or "flat"
    FlatPriceCents uint32        // per-seat price when PriceSource is "flat"
    HoldTTL        time.Duration // lifetime of a checkout seat hold
    ReserveWait    time.Duration // max wait for the per-show reservation lock
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Booking policy
// settings are optional and carry defaults.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),             // environment (dev/test/prod)
        Port:           must("APP_PORT"),            // port to bind the HTTP server
        DBUser:         must("DB_USER"),             // database user
        DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:         must("DB_HOST"),             // database host
        DBPort:         must("DB_PORT"),             // database port
        DBName:         must("DB_NAME"),             // database name
        JWTSecret:      must("JWT_SECRET"),          // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        BcryptCost:     mustInt("BCRYPT_COST"),      // bcrypt cost factor
        PriceSource:    priceSource(),
        FlatPriceCents: uint32(envInt("FLAT_PRICE_CENTS", 11000)),
        HoldTTL:        envDur("SEAT_HOLD_TTL", 5*time.Minute),
        ReserveWait:    envDur("RESERVE_LOCK_WAIT", 3*time.Second),
    }
}

// priceSource validates PRICE_SOURCE.  The data model carries a per-show
// price while some deployments bill a flat per-seat amount; which one is
// authoritative must be an explicit decision, so an unknown value is fatal
// rather than silently defaulted away.
func priceSource() string {
    v := os.Getenv("PRICE_SOURCE")
    if v == "" {
        return "show"
    }
    if v != "show" && v != "flat" {
        log.Fatalf("invalid PRICE_SOURCE: %q (want \"show\" or \"flat\")", v)
    }
    return v
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

