package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits the add-on catalog specification
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, and a map for the add-on price catalog.
type Config struct {
    Env          string            // application environment (e.g. "dev", "prod")
    Port         string            // HTTP port to listen on
    DBUser       string            // database username
    DBPass       string            // database password (optional)
    DBHost       string            // database host address
    DBPort       string            // database port number
    DBName       string            // database name
    JWTSecret    string            // secret used to sign JWTs
    AccessTTLMin int               // access token time-to-live in minutes
    BcryptCost   int               // bcrypt cost for password hashing
    AddOnCatalog map[string]uint32 // add-on name -> unit price in cents
}

// defaultAddOnCatalog is the concession price list used when ADDON_CATALOG
// is not set.
const defaultAddOnCatalog = "Popcorn=12000,Sandwich=18000,Nachos=15000,Soft Drink=8000"

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),
        Port:         must("APP_PORT"),
        DBUser:       must("DB_USER"),
        DBPass:       os.Getenv("DB_PASS"), // empty allowed
        DBHost:       must("DB_HOST"),
        DBPort:       must("DB_PORT"),
        DBName:       must("DB_NAME"),
        JWTSecret:    must("JWT_SECRET"),
        AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
        BcryptCost:   mustInt("BCRYPT_COST"),
        AddOnCatalog: parseAddOnCatalog(envStr("ADDON_CATALOG", defaultAddOnCatalog)),
    }
}

// parseAddOnCatalog parses a "Name=cents,Name=cents" specification.  Bad
// entries are fatal: a misconfigured price list must not silently price
// add-ons at zero.
func parseAddOnCatalog(spec string) map[string]uint32 {
    catalog := make(map[string]uint32)
    for _, entry := range strings.Split(spec, ",") {
        entry = strings.TrimSpace(entry)
        if entry == "" {
            continue
        }
        name, priceStr, ok := strings.Cut(entry, "=")
        name = strings.TrimSpace(name)
        if !ok || name == "" {
            log.Fatalf("invalid ADDON_CATALOG entry: %q", entry)
        }
        price, err := strconv.ParseUint(strings.TrimSpace(priceStr), 10, 32)
        if err != nil {
            log.Fatalf("invalid ADDON_CATALOG price in %q: %v", entry, err)
        }
        catalog[name] = uint32(price)
    }
    if len(catalog) == 0 {
        log.Fatalf("ADDON_CATALOG is empty")
    }
    return catalog
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
