package gate

import (
	"fmt"
	"strings"
)

// FinalCheck is a cross-cutting check that runs once after all tiers,
// whatever the target phase. Its failures count only when the target phase
// is at least EnforceFrom.
type FinalCheck struct {
	Check       Check
	EnforceFrom int
}

// PlannedCheck describes a check that an evaluation of some phase would run.
type PlannedCheck struct {
	Name     string
	Tier     int
	Final    bool
	Enforced bool
}

// Registry holds checks grouped by the minimum phase at which they apply.
// Checks keep their registration order inside a tier. Registration is
// append-only; registered checks are never replaced or removed.
type Registry struct {
	tiers [][]Check
	final []FinalCheck
	names map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// DeclarePhases makes phases 0..maxPhase valid evaluation targets even if
// some of them have no checks of their own.
func (r *Registry) DeclarePhases(maxPhase int) {
	for len(r.tiers) <= maxPhase {
		r.tiers = append(r.tiers, nil)
	}
}

// Register adds check to tier. Names must be unique across the registry.
func (r *Registry) Register(tier int, check Check) error {
	if tier < 0 {
		return fmt.Errorf("gate: tier must be >= 0, got %d", tier)
	}
	if err := r.claimName(check); err != nil {
		return err
	}
	r.DeclarePhases(tier)
	r.tiers[tier] = append(r.tiers[tier], check)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(tier int, check Check) {
	if err := r.Register(tier, check); err != nil {
		panic(err)
	}
}

// RegisterFinal adds a cross-cutting check.
func (r *Registry) RegisterFinal(check Check, enforceFrom int) error {
	if enforceFrom < 0 {
		return fmt.Errorf("gate: enforcement phase must be >= 0, got %d", enforceFrom)
	}
	if err := r.claimName(check); err != nil {
		return err
	}
	r.final = append(r.final, FinalCheck{Check: check, EnforceFrom: enforceFrom})
	return nil
}

// MustRegisterFinal panics if registration fails.
func (r *Registry) MustRegisterFinal(check Check, enforceFrom int) {
	if err := r.RegisterFinal(check, enforceFrom); err != nil {
		panic(err)
	}
}

func (r *Registry) claimName(check Check) error {
	if check == nil {
		return fmt.Errorf("gate: check is required")
	}
	name := strings.TrimSpace(check.Name())
	if name == "" {
		return fmt.Errorf("gate: check name is required")
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("gate: check %q already registered", name)
	}
	r.names[name] = struct{}{}
	return nil
}

// MaxPhase returns the highest declared phase, or -1 for an empty registry.
func (r *Registry) MaxPhase() int {
	return len(r.tiers) - 1
}

// Tier returns a copy of the checks registered at tier.
func (r *Registry) Tier(tier int) []Check {
	if tier < 0 || tier >= len(r.tiers) {
		return nil
	}
	return append([]Check{}, r.tiers[tier]...)
}

// Final returns a copy of the cross-cutting checks.
func (r *Registry) Final() []FinalCheck {
	return append([]FinalCheck{}, r.final...)
}

// Len returns the number of registered checks, final checks included.
func (r *Registry) Len() int {
	return len(r.names)
}

// Plan lists the checks an evaluation of phase would run, in run order.
func (r *Registry) Plan(phase int) ([]PlannedCheck, error) {
	if err := r.validatePhase(phase); err != nil {
		return nil, err
	}
	var plan []PlannedCheck
	for tier := 0; tier <= phase; tier++ {
		for _, check := range r.tiers[tier] {
			plan = append(plan, PlannedCheck{Name: check.Name(), Tier: tier, Enforced: true})
		}
	}
	for _, fc := range r.final {
		plan = append(plan, PlannedCheck{
			Name:     fc.Check.Name(),
			Tier:     fc.EnforceFrom,
			Final:    true,
			Enforced: phase >= fc.EnforceFrom,
		})
	}
	return plan, nil
}

func (r *Registry) validatePhase(phase int) error {
	if phase < 0 {
		return configErrorf("phase must be a non-negative integer, got %d", phase)
	}
	if r == nil || r.MaxPhase() < 0 {
		return configErrorf("no phases registered")
	}
	if phase > r.MaxPhase() {
		return configErrorf("phase %d has no registry entry (highest phase is %d)", phase, r.MaxPhase())
	}
	return nil
}
