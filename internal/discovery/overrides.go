package discovery

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/policyscope/policyscan/internal/model"
)

// overrideConfidence is assigned to override-table entries. They are final:
// no strategy result ever supersedes them.
const overrideConfidence = 0.99

// Overrides maps a normalized hostname (lower-case, no www prefix) to
// known-correct policy URLs. Handles large sites whose policies live on a
// shared portal off the main domain.
type Overrides map[string]map[model.DocType]string

// DefaultOverrides returns the built-in override table.
func DefaultOverrides() Overrides {
	return Overrides{
		"google.com": {
			model.DocTypePrivacy: "https://policies.google.com/privacy",
			model.DocTypeTerms:   "https://policies.google.com/terms",
		},
	}
}

// LoadOverrides reads an override table from a YAML file and layers it over
// the defaults. File entries win on conflict.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read overrides %s", path)
	}

	var fromFile map[string]map[model.DocType]string
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, eris.Wrapf(err, "discovery: parse overrides %s", path)
	}

	merged := DefaultOverrides()
	for host, entries := range fromFile {
		if merged[host] == nil {
			merged[host] = make(map[model.DocType]string, len(entries))
		}
		for docType, u := range entries {
			merged[host][docType] = u
		}
	}
	return merged, nil
}
