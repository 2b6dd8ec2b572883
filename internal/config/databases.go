package config

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"gutcheck/domain/core"
	"gutcheck/domain/curation"
)

// databasesFile is the on-disk shape of the rule document: a map of
// database name to its curation rules.
type databasesFile struct {
	Databases map[string]curation.Rules `yaml:"databases"`
}

// LoadDatabases parses the YAML rule document into validated,
// strongly-typed rule sets keyed by database name. Any missing or
// malformed field is a ConfigError; nothing is accessed dynamically
// during filtering.
func LoadDatabases(path string) (map[string]curation.Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewConfigError("rules file", err.Error())
	}

	var doc databasesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, core.NewConfigError("rules file", "not valid YAML: "+err.Error())
	}
	if len(doc.Databases) == 0 {
		return nil, core.NewConfigError("rules file", "no databases defined")
	}

	out := make(map[string]curation.Rules, len(doc.Databases))
	for name, rules := range doc.Databases {
		rules.Database = name
		if err := rules.Validate(); err != nil {
			return nil, err
		}
		out[name] = rules
	}
	return out, nil
}

// SelectDatabase resolves one database's rules by name, listing the
// known names in the error to keep the failure actionable.
func SelectDatabase(all map[string]curation.Rules, name string) (curation.Rules, error) {
	if rules, ok := all[name]; ok {
		return rules, nil
	}
	known := make([]string, 0, len(all))
	for n := range all {
		known = append(known, n)
	}
	sort.Strings(known)
	return curation.Rules{}, core.NewConfigError("database "+name, "not defined; known: "+joinOr(known))
}

func joinOr(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
