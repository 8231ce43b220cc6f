package synthesis

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed gifts.json
var defaultFrameworkJSON []byte

// Gift declares one spiritual-gift category: the theme tags that indicate it
// and typical expressions used in the rationale text.
type Gift struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Indicators  []string `json:"indicators"`
	Expressions []string `json:"expressions,omitempty"`
}

// Framework is the gift-to-theme mapping. It is configuration, not code: the
// category definitions encode assessment-framework decisions and ship as an
// embedded JSON document that deployments can replace.
type Framework struct {
	Gifts []Gift `json:"gifts"`
}

// LoadFramework parses a framework document.
func LoadFramework(data []byte) (*Framework, error) {
	var fw Framework
	if err := json.Unmarshal(data, &fw); err != nil {
		return nil, fmt.Errorf("failed to parse gift framework: %w", err)
	}
	if len(fw.Gifts) == 0 {
		return nil, fmt.Errorf("gift framework declares no categories")
	}
	for _, g := range fw.Gifts {
		if g.Name == "" {
			return nil, fmt.Errorf("gift framework contains a category without a name")
		}
		if len(g.Indicators) == 0 {
			return nil, fmt.Errorf("gift %q declares no indicator themes", g.Name)
		}
	}
	return &fw, nil
}

// DefaultFramework returns the embedded eight-gift framework.
func DefaultFramework() *Framework {
	fw, err := LoadFramework(defaultFrameworkJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded gifts.json is invalid: %v", err))
	}
	return fw
}
