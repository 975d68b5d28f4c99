package jsonhash

import (
	"reflect"

	"github.com/viant/jsonhash/dispatch"
	jherrors "github.com/viant/jsonhash/errors"
	"github.com/viant/jsonhash/plan"
	"github.com/viant/jsonhash/reader"
	"github.com/viant/jsonhash/value"
)

// Mode controls compatibility vs strict behavior.
type Mode int

const (
	ModeCompat Mode = iota
	ModeStrict
)

// UnknownFieldPolicy controls unknown key handling.
type UnknownFieldPolicy = plan.UnknownFieldPolicy

const (
	IgnoreUnknown  = plan.IgnoreUnknown
	ErrorOnUnknown = plan.ErrorOnUnknown
)

// NumberPolicy controls numeric coercion behavior.
type NumberPolicy = value.NumberPolicy

const (
	CoerceNumbers = value.CoerceNumbers
	ExactNumbers  = value.ExactNumbers
)

// MalformedPolicy controls malformed JSON tolerance.
type MalformedPolicy = reader.MalformedPolicy

const (
	Tolerant = reader.Tolerant
	FailFast = reader.FailFast
)

// ScannerHooks contains block-scan hooks for whitespace and string scans.
type ScannerHooks = reader.ScannerHooks

// PlanInfo describes a generated decode plan.
type PlanInfo struct {
	Type        reflect.Type
	Strategy    plan.Strategy
	Cases       int
	Fingerprint uint64
	// Collision is why hash dispatch was rejected; nil for hash plans.
	Collision *dispatch.Collision
}

func newPlanInfo(rType reflect.Type, p plan.Plan) PlanInfo {
	return PlanInfo{
		Type:        rType,
		Strategy:    p.Strategy(),
		Cases:       len(p.Cases()),
		Fingerprint: p.Fingerprint(),
		Collision:   p.Collision(),
	}
}

var (
	ErrInvalidDescriptor = jherrors.ErrInvalidDescriptor
	ErrNoConstructor     = jherrors.ErrNoConstructor
	ErrDuplicateAlias    = jherrors.ErrDuplicateAlias
	ErrUnknownField      = jherrors.ErrUnknownField
	ErrNilDestination    = jherrors.ErrNilDestination
	ErrNotPointer        = jherrors.ErrNotPointer
	ErrTypeMismatch      = jherrors.ErrTypeMismatch
)
