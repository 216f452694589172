package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Role names one of the four datasets the study works with.
type Role string

const (
	RoleSleepProductivity Role = "sleep_productivity"
	RoleSleepHealth       Role = "sleep_health"
	RoleMerged            Role = "merged"
	RoleCleaned           Role = "cleaned"
)

// Roles returns every dataset role in display order.
func Roles() []Role {
	return []Role{RoleSleepProductivity, RoleSleepHealth, RoleMerged, RoleCleaned}
}

// Fields lists the schema fields the study reads from a dataset of this role.
func (r Role) Fields() []Field {
	switch r {
	case RoleSleepProductivity:
		return []Field{FieldAge, FieldGender, FieldCaffeine, FieldScreenTime, FieldExercise,
			FieldStress, FieldSleepQuality, FieldProductivity, FieldMood}
	case RoleSleepHealth:
		return []Field{FieldGender, FieldAge, FieldBMICategory, FieldStress, FieldHeartRate,
			FieldDailySteps, FieldSleepQuality}
	case RoleMerged:
		return []Field{FieldAge, FieldGender, FieldAgeCategory, FieldBMICategory, FieldBMICode,
			FieldStress, FieldHeartRate, FieldDailySteps, FieldCaffeine, FieldScreenTime,
			FieldExercise, FieldSleepQuality, FieldProductivity, FieldMood}
	case RoleCleaned:
		return []Field{FieldBMICode, FieldStress, FieldHeartRate, FieldDailySteps, FieldSleepQuality}
	}
	return nil
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", eris.Errorf("unknown dataset role %q (use sleep_productivity, sleep_health, merged or cleaned)", s)
}

// Provider supplies read-only tables by role.
type Provider interface {
	Table(ctx context.Context, role Role) (*Table, error)
}

// NotConfiguredError indicates a provider has no source for a role.
type NotConfiguredError struct {
	Role Role
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("dataset %q is not configured", e.Role)
}

// FileProvider loads tables from files on first use and hands out the same
// immutable table afterwards. It is safe for concurrent use.
type FileProvider struct {
	paths  map[Role]string
	schema *Schema
	opt    LoadOptions

	mu     sync.Mutex
	loaded map[Role]*Table
}

// NewFileProvider creates a provider for the given role → path mapping.
func NewFileProvider(paths map[Role]string, schema *Schema, opt LoadOptions) *FileProvider {
	if schema == nil {
		schema = DefaultSchema()
	}
	cp := make(map[Role]string, len(paths))
	for r, p := range paths {
		if p != "" {
			cp[r] = p
		}
	}
	return &FileProvider{paths: cp, schema: schema, opt: opt, loaded: map[Role]*Table{}}
}

// Path returns the configured file for a role.
func (p *FileProvider) Path(role Role) (string, bool) {
	path, ok := p.paths[role]
	return path, ok
}

// Table loads (once) and returns the table for role.
func (p *FileProvider) Table(ctx context.Context, role Role) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.loaded[role]; ok {
		return t, nil
	}
	path, ok := p.paths[role]
	if !ok {
		return nil, &NotConfiguredError{Role: role}
	}
	t, err := LoadFile(path, p.opt)
	if err != nil {
		return nil, eris.Wrapf(err, "load dataset %s", role)
	}
	if t, err = p.schema.Conform(t); err != nil {
		return nil, eris.Wrapf(err, "conform dataset %s", role)
	}
	if err := p.schema.Validate(t, role.Fields()...); err != nil {
		// Models that do not read the offending columns can still be fit.
		zap.L().Warn("dataset does not match schema",
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
	zap.L().Info("dataset ready",
		zap.String("role", string(role)),
		zap.String("file", t.Name()),
		zap.Int("rows", t.Rows()),
	)
	p.loaded[role] = t
	return t, nil
}

// StaticProvider serves tables that are already in memory.
type StaticProvider map[Role]*Table

// Table returns the table registered for role.
func (s StaticProvider) Table(ctx context.Context, role Role) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := s[role]
	if !ok || t == nil {
		return nil, &NotConfiguredError{Role: role}
	}
	return t, nil
}
