package curation

import (
	"strings"

	"gutcheck/domain/core"
)

// ModerateBand marks the abundance interval routed to manual review
// even when the database does not force review outright.
type ModerateBand struct {
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
}

// Rules is the per-reference-database curation configuration, parsed
// from the rule document at load time. All fields are validated before
// any species is processed.
type Rules struct {
	Database            string        `yaml:"-" json:"database"`
	Path                string        `yaml:"path" json:"path"`
	MinAbundance        *float64      `yaml:"min_abundance" json:"min_abundance"`
	RequireManualReview bool          `yaml:"require_manual_review" json:"require_manual_review"`
	ExcludeGenera       []string      `yaml:"exclude_genera" json:"exclude_genera"`
	IncludePatterns     []string      `yaml:"include_patterns" json:"include_patterns"`
	Moderate            *ModerateBand `yaml:"moderate_band" json:"moderate_band,omitempty"`
}

// Validate rejects incomplete or malformed rule sets with a ConfigError.
func (r Rules) Validate() error {
	if r.Database == "" {
		return core.NewConfigError("database", "name must not be empty")
	}
	if r.MinAbundance == nil {
		return core.NewConfigError(r.Database+".min_abundance", "required field is missing")
	}
	if *r.MinAbundance < 0 || *r.MinAbundance > 100 {
		return core.NewConfigError(r.Database+".min_abundance", "must be a percentage in [0,100]")
	}
	for _, g := range r.ExcludeGenera {
		if strings.TrimSpace(g) == "" {
			return core.NewConfigError(r.Database+".exclude_genera", "blank genus entry")
		}
	}
	for _, p := range r.IncludePatterns {
		if strings.TrimSpace(p) == "" {
			return core.NewConfigError(r.Database+".include_patterns", "blank pattern entry")
		}
	}
	if r.Moderate != nil {
		if r.Moderate.Low < 0 || r.Moderate.High < r.Moderate.Low {
			return core.NewConfigError(r.Database+".moderate_band", "requires 0 <= low <= high")
		}
	}
	return nil
}

func (r Rules) genusExcluded(genus string) bool {
	for _, g := range r.ExcludeGenera {
		if strings.EqualFold(strings.TrimSpace(g), genus) {
			return true
		}
	}
	return false
}

func (r Rules) patternAllows(text string) bool {
	for _, p := range r.IncludePatterns {
		if strings.Contains(text, strings.ToLower(strings.TrimSpace(p))) {
			return true
		}
	}
	return false
}

func (r Rules) inModerateBand(pct float64) bool {
	return r.Moderate != nil && pct >= r.Moderate.Low && pct <= r.Moderate.High
}
