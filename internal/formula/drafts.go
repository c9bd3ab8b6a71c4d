package formula

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type draftFile struct {
	Formulas []Draft `yaml:"formulas"`
}

// DecodeDrafts parses a YAML document of the form
//
//	formulas:
//	  - title: ...
//	    description: ...
//	    content: ...
//
// and validates every entry. Nothing is returned unless all drafts are valid.
func DecodeDrafts(data []byte) ([]Draft, error) {
	var file draftFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("formula: decode drafts: %w", err)
	}
	for i, draft := range file.Formulas {
		if err := ValidateDraft(draft); err != nil {
			return nil, fmt.Errorf("formula: draft %d (%q): %w", i+1, draft.Title, err)
		}
	}
	return file.Formulas, nil
}
