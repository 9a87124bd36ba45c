package extension

import (
	billing "github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/plugin"
	"github.com/Huzaifa-Ambakhutwala/AMKTutors-sub000/store"
)

// Option configures the billing Forge extension.
type Option func(*Extension)

// WithStore sets the store for the billing engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a billing.Option through to the underlying engine.
func WithEngineOption(opt billing.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a billing plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, billing.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithInvoiceDueDays sets the due window for generated invoices.
func WithInvoiceDueDays(days int) Option {
	return func(e *Extension) { e.config.InvoiceDueDays = days }
}

// WithMongoURI makes the extension connect a mongo client and use the
// MongoDB store. Ignored when WithStore was called.
func WithMongoURI(uri, database string) Option {
	return func(e *Extension) {
		e.config.MongoURI = uri
		e.config.MongoDatabase = database
	}
}

// WithPostgresDSN makes the extension open a pgx pool and use the
// PostgreSQL store. Ignored when WithStore was called.
func WithPostgresDSN(dsn string) Option {
	return func(e *Extension) { e.config.PostgresDSN = dsn }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
