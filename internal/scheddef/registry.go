package scheddef

import (
	"log/slog"

	"github.com/me/esrt/pkg/model"
)

// Registry maps SchedPredef values to their Definition. Registration
// happens at startup before concurrent access, so no mutex is needed,
// matching how the executor registry this is modeled on is used.
type Registry struct {
	defs   map[model.SchedPredef]Definition
	logger *slog.Logger
}

// NewRegistry creates a Registry pre-populated with the BASIC and PRIO
// predefined definitions. DEFAULT is registered as an alias of BASIC.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		defs:   make(map[model.SchedPredef]Definition),
		logger: logger.With("component", "scheddef-registry"),
	}
	r.Register(model.SchedBasic, Basic)
	r.Register(model.SchedPrio, Prio)
	r.Register(model.SchedDefault, Basic)
	return r
}

// Register adds a Definition to the registry under the given predef
// name, overwriting any prior registration.
func (r *Registry) Register(name model.SchedPredef, def Definition) {
	r.defs[name] = def
	r.logger.Info("scheduler definition registered", "predef", name, "kind", def.Kind())
}

// Get returns the Definition registered for name, or an error wrapping
// model.InvalidSchedPredef if none is registered.
func (r *Registry) Get(name model.SchedPredef) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, model.InvalidSchedPredef.Wrap("no scheduler definition registered for %q", name)
	}
	return def, nil
}
