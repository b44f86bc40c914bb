// Package family implements the (Processor Signature, bank) dispatch table
// of spec.md §4.4.8: a registry of per-processor-family handlers that layer
// incremental, model-specific decoding on top of the generic result
// pkg/mca.Decode already produced. It replaces what the source expresses as
// a deeply nested switch (spec.md §9 Design Notes) with a table lookup.
package family

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mscrnt/mcadecode/pkg/mca"
)

// Handler enriches a DecodedMcaEvent with processor-family-specific
// knowledge. Decode is only called for banks Handler declares interest in;
// an empty Banks() means "every bank this signature reports".
type Handler interface {
	// Signature is the registry key this handler serves: either an exact
	// Processor Signature ("06_2DH") or a family wildcard ("0F_xxH") that
	// matches any signature sharing that base family.
	Signature() string

	// Banks lists the bank indexes this handler knows how to decode. An
	// empty slice means all banks.
	Banks() []int

	// Decode mutates ev in place, appending to ev.ModelSpecificErrors and
	// ev.Warnings as needed. It never overwrites the generic decode.
	Decode(ev *mca.DecodedMcaEvent, opts mca.Options)
}

// Registry maps processor signatures to Handlers, with a family-wildcard
// fallback. Adapted from the plugin registry pattern this codebase's
// ancestor used for its test plugins: a mutex-guarded map with
// Register/Get/List and duplicate-registration rejected.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

var globalRegistry = NewRegistry()

// Register adds h to the global registry.
func Register(h Handler) error { return globalRegistry.Register(h) }

// Get looks up a handler for signature in the global registry.
func Get(signature string) (Handler, error) { return globalRegistry.Get(signature) }

// List returns every registered signature key, sorted.
func List() []string { return globalRegistry.List() }

// Dispatch runs family-specific decoding against ev in the global registry,
// if a handler is registered for ev's signature and bank. It is a no-op,
// not an error, when nothing is registered: incremental decoding is always
// optional on top of the generic result. It is also a no-op for an event
// whose MCA error code was not recognized (MCAError type Unknown).
func Dispatch(signature string, ev *mca.DecodedMcaEvent, opts mca.Options) {
	globalRegistry.Dispatch(signature, ev, opts)
}

// Register adds h to the registry, keyed by h.Signature().
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("family: handler cannot be nil")
	}
	sig := h.Signature()
	if sig == "" {
		return fmt.Errorf("family: handler signature cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[sig]; exists {
		return fmt.Errorf("family: handler for %q already registered", sig)
	}
	r.handlers[sig] = h
	return nil
}

// Get returns the handler registered for signature, trying an exact match
// first and then the "<family>_xxH" wildcard convention.
func (r *Registry) Get(signature string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[signature]; ok {
		return h, nil
	}

	if family := strings.SplitN(signature, "_", 2)[0]; family != "" {
		if h, ok := r.handlers[family+"_xxH"]; ok {
			return h, nil
		}
	}

	return nil, fmt.Errorf("family: no handler registered for %q", signature)
}

// List returns every registered signature key in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch finds and runs the handler for signature/ev.Bank, if any.
func (r *Registry) Dispatch(signature string, ev *mca.DecodedMcaEvent, opts mca.Options) {
	if ev.MCAError != nil && ev.MCAError.Type == mca.MCAErrorUnknown {
		return
	}
	h, err := r.Get(signature)
	if err != nil {
		return
	}
	if banks := h.Banks(); len(banks) > 0 && !bankIn(banks, ev.Bank) {
		return
	}
	h.Decode(ev, opts)
	ev.IncrementalDecoded = true
}

func bankIn(banks []int, bank int) bool {
	for _, b := range banks {
		if b == bank {
			return true
		}
	}
	return false
}
