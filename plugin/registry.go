package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onSessionRecorded      []OnSessionRecorded
	onInvoiceGenerated     []OnInvoiceGenerated
	onInvoiceVoided        []OnInvoiceVoided
	onInvoiceStatusChanged []OnInvoiceStatusChanged
	onPayStubGenerated     []OnPayStubGenerated
	onPayStubVoided        []OnPayStubVoided
	onPayStubStatusChanged []OnPayStubStatusChanged
	onBillingConflict      []OnBillingConflict
	statementRenderers     map[string]StatementRenderer
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:             slog.Default(),
		statementRenderers: make(map[string]StatementRenderer),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSessionRecorded); ok {
		r.onSessionRecorded = append(r.onSessionRecorded, v)
	}
	if v, ok := p.(OnInvoiceGenerated); ok {
		r.onInvoiceGenerated = append(r.onInvoiceGenerated, v)
	}
	if v, ok := p.(OnInvoiceVoided); ok {
		r.onInvoiceVoided = append(r.onInvoiceVoided, v)
	}
	if v, ok := p.(OnInvoiceStatusChanged); ok {
		r.onInvoiceStatusChanged = append(r.onInvoiceStatusChanged, v)
	}
	if v, ok := p.(OnPayStubGenerated); ok {
		r.onPayStubGenerated = append(r.onPayStubGenerated, v)
	}
	if v, ok := p.(OnPayStubVoided); ok {
		r.onPayStubVoided = append(r.onPayStubVoided, v)
	}
	if v, ok := p.(OnPayStubStatusChanged); ok {
		r.onPayStubStatusChanged = append(r.onPayStubStatusChanged, v)
	}
	if v, ok := p.(OnBillingConflict); ok {
		r.onBillingConflict = append(r.onBillingConflict, v)
	}
	if v, ok := p.(StatementRenderer); ok {
		r.statementRenderers[v.Format()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnSessionRecorded)(nil)).Elem(), "OnSessionRecorded")
	checkInterface(reflect.TypeOf((*OnInvoiceGenerated)(nil)).Elem(), "OnInvoiceGenerated")
	checkInterface(reflect.TypeOf((*OnInvoiceVoided)(nil)).Elem(), "OnInvoiceVoided")
	checkInterface(reflect.TypeOf((*OnInvoiceStatusChanged)(nil)).Elem(), "OnInvoiceStatusChanged")
	checkInterface(reflect.TypeOf((*OnPayStubGenerated)(nil)).Elem(), "OnPayStubGenerated")
	checkInterface(reflect.TypeOf((*OnPayStubVoided)(nil)).Elem(), "OnPayStubVoided")
	checkInterface(reflect.TypeOf((*OnPayStubStatusChanged)(nil)).Elem(), "OnPayStubStatusChanged")
	checkInterface(reflect.TypeOf((*OnBillingConflict)(nil)).Elem(), "OnBillingConflict")
	checkInterface(reflect.TypeOf((*StatementRenderer)(nil)).Elem(), "StatementRenderer")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// GetStatementRenderer returns a statement renderer by format, or nil.
func (r *Registry) GetStatementRenderer(format string) StatementRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statementRenderers[format]
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionRecorded emits a session recorded event.
func (r *Registry) EmitSessionRecorded(ctx context.Context, sess interface{}) {
	r.mu.RLock()
	plugins := r.onSessionRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionRecorded(ctx, sess)
		}); err != nil {
			r.logger.Warn("plugin OnSessionRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceGenerated emits an invoice generated event.
func (r *Registry) EmitInvoiceGenerated(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceGenerated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceGenerated(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceGenerated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceVoided emits an invoice voided event.
func (r *Registry) EmitInvoiceVoided(ctx context.Context, inv interface{}, reverted int) {
	r.mu.RLock()
	plugins := r.onInvoiceVoided
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceVoided(ctx, inv, reverted)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceVoided failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceStatusChanged emits an invoice status transition event.
func (r *Registry) EmitInvoiceStatusChanged(ctx context.Context, inv interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onInvoiceStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceStatusChanged(ctx, inv, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceStatusChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPayStubGenerated emits a pay stub generated event.
func (r *Registry) EmitPayStubGenerated(ctx context.Context, stub interface{}) {
	r.mu.RLock()
	plugins := r.onPayStubGenerated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPayStubGenerated(ctx, stub)
		}); err != nil {
			r.logger.Warn("plugin OnPayStubGenerated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPayStubVoided emits a pay stub voided event.
func (r *Registry) EmitPayStubVoided(ctx context.Context, stub interface{}, reverted int) {
	r.mu.RLock()
	plugins := r.onPayStubVoided
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPayStubVoided(ctx, stub, reverted)
		}); err != nil {
			r.logger.Warn("plugin OnPayStubVoided failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPayStubStatusChanged emits a pay stub status transition event.
func (r *Registry) EmitPayStubStatusChanged(ctx context.Context, stub interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onPayStubStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPayStubStatusChanged(ctx, stub, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnPayStubStatusChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBillingConflict emits a billing conflict event.
func (r *Registry) EmitBillingConflict(ctx context.Context, track, partyID string, sessionIDs []string) {
	r.mu.RLock()
	plugins := r.onBillingConflict
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBillingConflict(ctx, track, partyID, sessionIDs)
		}); err != nil {
			r.logger.Warn("plugin OnBillingConflict failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
