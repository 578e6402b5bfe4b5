// Package config provides configuration management for the overpassql CLI.
//
// Configuration is resolved from four sources with the usual precedence,
// highest first: command-line flags, OVERPASSQL_* environment variables, a
// YAML config file, built-in defaults.
package config

// Defaults applied before any configuration source is read.
const (
	DefaultDialect = "postgres"
	DefaultSRID    = 4326
)

// Config holds the resolved CLI configuration.
type Config struct {
	// Dialect names the SQL backend the compiler targets.
	Dialect string `koanf:"dialect"`

	// SRID is the spatial reference system generated geometry is
	// projected into. Literals are always written in 4326.
	SRID int `koanf:"srid"`

	// Verbose enables debug logging on stderr.
	Verbose bool `koanf:"verbose"`
}

// Default returns a Config carrying the built-in defaults.
func Default() *Config {
	return &Config{
		Dialect: DefaultDialect,
		SRID:    DefaultSRID,
	}
}
