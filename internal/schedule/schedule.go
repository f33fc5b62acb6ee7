// Package schedule reads recurrence schedules from YAML files.
package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cyp0633/librecur/civil"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Cache presets accepted in the cache field.
const (
	CacheDefault         = "default"
	CacheHighPerformance = "high-performance"
	CacheLowMemory       = "low-memory"
	CacheNone            = "none"
)

// File is a schedule document:
//
//	zone: America/New_York
//	start: 2024-01-01T09:00
//	rules:
//	  - rrule: FREQ=WEEKLY;BYDAY=MO,WE
//	  - cron: "30 12 * * FRI"
//	exdates: [2024-01-10T09:00]
type File struct {
	// Zone names the zone of every date in the file. Empty means floating.
	Zone string `yaml:"zone,omitempty"`
	// Start is the start of rules that do not set their own.
	Start   string     `yaml:"start,omitempty" validate:"omitempty,civiltime"`
	Cache   string     `yaml:"cache,omitempty" validate:"omitempty,oneof=default high-performance low-memory none"`
	Rules   []RuleSpec `yaml:"rules,omitempty" validate:"required_without=Dates,dive"`
	ExRules []RuleSpec `yaml:"exrules,omitempty" validate:"dive"`
	Dates   []string   `yaml:"dates,omitempty" validate:"required_without=Rules,dive,civiltime"`
	ExDates []string   `yaml:"exdates,omitempty" validate:"dive,civiltime"`
}

// RuleSpec is one rule, written either as RRULE text or as a crontab line.
type RuleSpec struct {
	RRule string `yaml:"rrule,omitempty" validate:"required_without=Cron,excluded_with=Cron"`
	Cron  string `yaml:"cron,omitempty" validate:"required_without=RRule"`
	Start string `yaml:"start,omitempty" validate:"omitempty,civiltime"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("civiltime", validateCivilTime)
}

func validateCivilTime(fl validator.FieldLevel) bool {
	_, err := civil.ParseISO(fl.Field().String(), nil)
	return err == nil
}

// Load reads and validates the schedule at path.
func Load(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("schedule path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a schedule document. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("schedule is empty")
		}
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field syntax. Zone names and rule text are checked by Build.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// Config returns the set configuration named by the cache field.
func (f *File) Config() recurrence.Config {
	switch f.Cache {
	case CacheHighPerformance:
		return recurrence.HighPerformanceConfig
	case CacheLowMemory:
		return recurrence.LowMemoryConfig
	case CacheNone:
		return recurrence.NoCacheConfig
	default:
		return recurrence.DefaultConfig
	}
}

// Build resolves the file's zone with resolver and assembles the set.
func (f *File) Build(resolver civil.ZoneLookup) (*recurrence.Set, error) {
	if resolver == nil {
		resolver = civil.DefaultResolver()
	}
	var zone civil.Zone
	if f.Zone != "" {
		z, err := resolver.Lookup(f.Zone)
		if err != nil {
			return nil, err
		}
		zone = z
	}

	set := recurrence.NewSet(recurrence.WithConfig(f.Config()))
	for i, spec := range f.Rules {
		rules, err := f.buildRule(spec, zone)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		for _, r := range rules {
			set.Include(r)
		}
	}
	for i, spec := range f.ExRules {
		rules, err := f.buildRule(spec, zone)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("exrule %d: %w", i, err)
		}
		for _, r := range rules {
			set.Exclude(r)
		}
	}
	for _, d := range f.Dates {
		t, err := civil.ParseISO(d, zone)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.AddDate(t)
	}
	for _, d := range f.ExDates {
		t, err := civil.ParseISO(d, zone)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.AddExDate(t)
	}
	return set, nil
}

func (f *File) buildRule(spec RuleSpec, zone civil.Zone) ([]*recurrence.Rule, error) {
	text := spec.Start
	if text == "" {
		text = f.Start
	}
	var start civil.Time
	if text != "" {
		t, err := civil.ParseISO(text, zone)
		if err != nil {
			return nil, err
		}
		start = t
	}

	if spec.Cron != "" {
		if start.IsZero() {
			return nil, errors.New("cron rule has no start")
		}
		return recurrence.ParseCron(spec.Cron, start)
	}
	r, err := recurrence.ParseRule(spec.RRule, start)
	if err != nil {
		return nil, err
	}
	return []*recurrence.Rule{r}, nil
}
