/*
config.go - Versioned reconciliation configuration

PURPOSE:
  Converts the JSON configuration format into domain tables. A
  Config bundles everything an engine run needs besides the data:
  the rule table, the category table, the early-stage overlay, the
  shipment sub-split statuses, and the column resolution patterns.

FORMAT:
  {
    "version": "advance-exchange",
    "rules": { "replacement authorized": ["picked up", ...], ... },
    "categories": { "shipment-exception": ["delivery exception", ...], ... },
    "earlyStage": ["replacement authorized", ...],
    "replacementStatuses": ["replacement request raised", ...]
  }

  Rules and categories are deliberately independent data sets: they
  answer different questions (what contradicts a claim status vs
  where a claim sits in its lifecycle) and drift independently.

SEE ALSO:
  - presets.go: The two shipped configurations
  - recon/rules.go, recon/categories.go: The built tables
*/
package factory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/syncops/recon-engine/recon"
)

// Config is the on-disk configuration shape.
type Config struct {
	Version             string                  `json:"version"`
	Rules               map[string][]string     `json:"rules"`
	Categories          map[string][]string     `json:"categories"`
	EarlyStage          []string                `json:"earlyStage"`
	ReplacementStatuses []string                `json:"replacementStatuses"`
}

// Tables is the built, validated output of a Config.
type Tables struct {
	Version             string
	Rules               *recon.RuleTable
	Categories          *recon.CategoryTable
	ReplacementStatuses []string
}

// Build validates the config and constructs the domain tables.
func (c *Config) Build() (*Tables, error) {
	if err := recon.ValidateRules(c.Rules); err != nil {
		return nil, fmt.Errorf("config %q: %w", c.Version, err)
	}
	byPhase := map[recon.Phase][]string{}
	for phase, statuses := range c.Categories {
		p := recon.Phase(phase)
		switch p {
		case recon.PhasePreProcessing, recon.PhaseInterfaceFailure,
			recon.PhaseShipmentException, recon.PhaseReturnException,
			recon.PhaseCompleted:
			byPhase[p] = statuses
		default:
			return nil, fmt.Errorf("config %q: unknown phase %q", c.Version, phase)
		}
	}
	return &Tables{
		Version:             c.Version,
		Rules:               recon.NewRuleTableFrom(c.Rules),
		Categories:          recon.NewCategoryTable(byPhase, c.EarlyStage),
		ReplacementStatuses: c.ReplacementStatuses,
	}, nil
}

// Config reconstructs the serializable form of built tables, for
// persisting the working configuration after mutations.
func (t *Tables) Config() *Config {
	categories := map[string][]string{}
	for _, phase := range []recon.Phase{
		recon.PhasePreProcessing, recon.PhaseInterfaceFailure,
		recon.PhaseShipmentException, recon.PhaseReturnException,
		recon.PhaseCompleted,
	} {
		if statuses := t.Categories.Statuses(phase); len(statuses) > 0 {
			categories[string(phase)] = statuses
		}
	}
	return &Config{
		Version:             t.Version,
		Rules:               t.Rules.Map(),
		Categories:          categories,
		EarlyStage:          t.Categories.EarlyStatuses(),
		ReplacementStatuses: append([]string(nil), t.ReplacementStatuses...),
	}
}

// Load reads and builds a config from JSON.
func Load(r io.Reader) (*Tables, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg.Build()
}

// ByName returns a shipped preset by version name.
func ByName(name string) (*Config, error) {
	switch name {
	case "advance-exchange", "":
		return AdvanceExchange(), nil
	case "generic-lifecycle":
		return GenericLifecycle(), nil
	}
	return nil, fmt.Errorf("unknown preset %q", name)
}
