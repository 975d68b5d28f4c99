package jsonhash

import (
	"context"
	"time"

	"github.com/viant/jsonhash/reader"
	"github.com/viant/tagly/format"
	"github.com/viant/tagly/format/text"
	ftime "github.com/viant/tagly/format/time"
)

// Option configures decoding and plan generation.
type Option interface {
	apply(*Options)
}

// Options holds resolved decode options.
type Options struct {
	Ctx                context.Context
	Mode               Mode
	UnknownFieldPolicy UnknownFieldPolicy
	NumberPolicy       NumberPolicy
	MalformedPolicy    MalformedPolicy
	CaseFormat         text.CaseFormat
	FormatTag          *format.Tag
	TimeLayout         string
	// Reuse decodes into the existing destination instead of a fresh instance.
	Reuse        bool
	Registry     *Registry
	PlanListener func(PlanInfo)
	// PlanCacheSize bounds the plans kept by a NewRegistry; 0 keeps all.
	PlanCacheSize int

	scannerHooks          ScannerHooks
	setUnknownFieldPolicy bool
	setNumberPolicy       bool
	setMalformedPolicy    bool
	setCaseFormat         bool
}

type optionFn func(*Options)

func (o optionFn) apply(opts *Options) { o(opts) }

// WithContext sets the context checked before decoding starts.
func WithContext(ctx context.Context) Option {
	return optionFn(func(o *Options) { o.Ctx = ctx })
}

// WithMode selects compat or strict policy defaults.
func WithMode(mode Mode) Option {
	return optionFn(func(o *Options) { o.Mode = mode })
}

// WithUnknownFieldPolicy decides whether unknown keys are skipped or rejected.
func WithUnknownFieldPolicy(policy UnknownFieldPolicy) Option {
	return optionFn(func(o *Options) {
		o.UnknownFieldPolicy = policy
		o.setUnknownFieldPolicy = true
	})
}

// WithNumberPolicy decides whether numbers are coerced to the target kind.
func WithNumberPolicy(policy NumberPolicy) Option {
	return optionFn(func(o *Options) {
		o.NumberPolicy = policy
		o.setNumberPolicy = true
	})
}

// WithMalformedPolicy decides how separators and trailing data are checked.
func WithMalformedPolicy(policy MalformedPolicy) Option {
	return optionFn(func(o *Options) {
		o.MalformedPolicy = policy
		o.setMalformedPolicy = true
	})
}

// WithCaseFormat adds an alias in caseFormat for untagged fields.
func WithCaseFormat(caseFormat text.CaseFormat) Option {
	return optionFn(func(o *Options) {
		o.CaseFormat = caseFormat
		o.setCaseFormat = true
	})
}

// WithFormatTag supplies time layout and case format defaults.
func WithFormatTag(tag *format.Tag) Option {
	return optionFn(func(o *Options) { o.FormatTag = tag })
}

// WithTimeLayout sets the default layout of time.Time values.
func WithTimeLayout(layout string) Option {
	return optionFn(func(o *Options) { o.TimeLayout = layout })
}

// WithScannerHooks replaces the whitespace and string scanning routines.
func WithScannerHooks(hooks ScannerHooks) Option {
	return optionFn(func(o *Options) { o.scannerHooks = hooks })
}

// WithReuse merges into the destination (or the previous result of a Decoder).
func WithReuse(enabled bool) Option {
	return optionFn(func(o *Options) { o.Reuse = enabled })
}

// WithRegistry uses registry instead of the shared one matching the options.
func WithRegistry(registry *Registry) Option {
	return optionFn(func(o *Options) { o.Registry = registry })
}

// WithPlanListener is notified once for each plan generated by the call.
func WithPlanListener(listener func(PlanInfo)) Option {
	return optionFn(func(o *Options) { o.PlanListener = listener })
}

// WithPlanCacheSize bounds the plans kept by NewRegistry; evicted plans are
// generated again on next use.
func WithPlanCacheSize(size int) Option {
	return optionFn(func(o *Options) { o.PlanCacheSize = size })
}

func defaultOptions() Options {
	return Options{
		Mode:               ModeCompat,
		UnknownFieldPolicy: IgnoreUnknown,
		NumberPolicy:       CoerceNumbers,
		MalformedPolicy:    Tolerant,
		CaseFormat:         text.CaseFormatUndefined,
		TimeLayout:         time.RFC3339,
	}
}

func resolveOptions(ctx context.Context, opts []Option) Options {
	result := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(&result)
	}
	if ctx != nil {
		result.Ctx = ctx
	}
	if result.Ctx == nil {
		result.Ctx = context.Background()
	}
	if result.FormatTag != nil {
		if result.TimeLayout == "" {
			result.TimeLayout = time.RFC3339
		}
		if result.FormatTag.TimeLayout != "" {
			result.TimeLayout = result.FormatTag.TimeLayout
		} else if result.FormatTag.DateFormat != "" {
			result.TimeLayout = ftime.DateFormatToTimeLayout(result.FormatTag.DateFormat)
		}
		if !result.setCaseFormat && result.CaseFormat == text.CaseFormatUndefined {
			cf := text.CaseFormat(result.FormatTag.CaseFormat)
			if cf != "" && cf != "-" {
				result.CaseFormat = cf
				result.setCaseFormat = true
			}
		}
	}
	if result.TimeLayout == "" {
		result.TimeLayout = time.RFC3339
	}
	if result.Mode == ModeStrict {
		if !result.setUnknownFieldPolicy {
			result.UnknownFieldPolicy = ErrorOnUnknown
		}
		if !result.setNumberPolicy {
			result.NumberPolicy = ExactNumbers
		}
		if !result.setMalformedPolicy {
			result.MalformedPolicy = FailFast
		}
	}
	return result
}

func (o *Options) newReader(data []byte) *reader.Reader {
	return reader.New(data, reader.WithHooks(o.scannerHooks), reader.WithMalformedPolicy(o.MalformedPolicy))
}
