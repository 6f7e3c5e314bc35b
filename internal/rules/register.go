package rules

import (
	"flowscope/internal/config"
	"flowscope/internal/rules/builtin"
)

// RegisterBuiltins wires the built-in rule set into the engine from
// configuration. Registration order fixes alert ordering within one flow.
func RegisterBuiltins(engine *Engine, cfg config.RulesConfig) {
	engine.RegisterRule(builtin.NewHighVolumeRule(cfg.HighVolume.Enabled, cfg.HighVolume.ThresholdBytes))
	engine.RegisterRule(builtin.NewSuspiciousPortRule(cfg.SuspiciousPort.Enabled, cfg.SuspiciousPort.Ports))
}
