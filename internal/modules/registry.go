package modules

import (
	"github.com/waypost-hq/waypost/internal/eval"
	"github.com/waypost-hq/waypost/internal/registry"
)

// DefaultRegistry returns a registry loaded with the core condition
// ops and every built-in module group.
func DefaultRegistry() *registry.Registry {
	reg := registry.New()
	eval.RegisterCore(reg)
	registerValues(reg)
	registerScenes(reg)
	registerCues(reg)
	registerMessages(reg)
	registerTiming(reg)
	registerPages(reg)
	registerEmail(reg)
	return reg
}
