package rules

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// RulesFile is the on-disk representation of a threshold-rule table.
// The table is configuration data, not logic: operators may tune bounds
// or add rules without rebuilding.
//
// Example YAML structure:
//
//	schema_version: v1
//	rules:
//	  - parameter: engine_temp
//	    max: 110
//	    severity: HIGH
//	    message: Engine temperature critically high
type RulesFile struct {
	// SchemaVersion is the explicit config schema version (e.g., "v1")
	SchemaVersion string `yaml:"schema_version"`

	// Rules is the ordered threshold table; evaluation preserves file order
	Rules []Rule `yaml:"rules"`
}

// Validate checks that the RulesFile is structurally valid.
func (rf *RulesFile) Validate() error {
	if rf.SchemaVersion != "v1" {
		return fmt.Errorf("unsupported schema_version: %q (expected \"v1\")", rf.SchemaVersion)
	}

	if len(rf.Rules) == 0 {
		return fmt.Errorf("rules list must not be empty")
	}

	for i, rule := range rf.Rules {
		if rule.Parameter == "" {
			return fmt.Errorf("rule[%d]: parameter is required", i)
		}
		if rule.Min == nil && rule.Max == nil {
			return fmt.Errorf("rule[%d] (%s): at least one of min or max is required", i, rule.Parameter)
		}
		if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
			return fmt.Errorf("rule[%d] (%s): min %g exceeds max %g", i, rule.Parameter, *rule.Min, *rule.Max)
		}
		if !rule.Severity.Valid() {
			return fmt.Errorf("rule[%d] (%s): invalid severity %q", i, rule.Parameter, rule.Severity)
		}
		if rule.Message == "" {
			return fmt.Errorf("rule[%d] (%s): message is required", i, rule.Parameter)
		}
	}

	return nil
}

// LoadRules loads and validates a threshold-rule table from a YAML file
// using Koanf. Returns the ordered rule slice ready for NewEngine.
func LoadRules(filepath string) ([]Rule, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load rules config from %q: %w", filepath, err)
	}

	var rf RulesFile
	if err := k.UnmarshalWithConf("", &rf, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse rules config from %q: %w", filepath, err)
	}

	if err := rf.Validate(); err != nil {
		return nil, fmt.Errorf("rules config validation failed for %q: %w", filepath, err)
	}

	return rf.Rules, nil
}
