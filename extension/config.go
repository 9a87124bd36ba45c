package extension

// Config holds the billing extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.billing" or "billing" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// InvoiceDueDays is the number of days after issue that generated
	// invoices fall due (default: 14).
	InvoiceDueDays int `json:"invoice_due_days" mapstructure:"invoice_due_days" yaml:"invoice_due_days"`

	// MongoURI, when set, makes the extension connect a mongo client and
	// use the MongoDB store. Takes precedence over PostgresDSN; ignored
	// when a store was provided programmatically.
	MongoURI string `json:"mongo_uri" mapstructure:"mongo_uri" yaml:"mongo_uri"`

	// MongoDatabase is the database name for the MongoDB store
	// (default: "billing").
	MongoDatabase string `json:"mongo_database" mapstructure:"mongo_database" yaml:"mongo_database"`

	// PostgresDSN, when set, makes the extension open a pgx pool and use
	// the PostgreSQL store. Ignored when a store was provided
	// programmatically.
	PostgresDSN string `json:"postgres_dsn" mapstructure:"postgres_dsn" yaml:"postgres_dsn"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		InvoiceDueDays: 14,
		MongoDatabase:  "billing",
	}
}
