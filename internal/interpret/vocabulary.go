package interpret

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed vocabulary.json
var defaultVocabularyJSON []byte

// Vocabulary maps theme tags to the keywords that indicate them. Tags follow
// the skill_/passion_ naming convention so downstream aggregation can split
// the two families.
type Vocabulary map[string][]string

// LoadVocabulary parses a vocabulary document.
func LoadVocabulary(data []byte) (Vocabulary, error) {
	var vocab Vocabulary
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary declares no themes")
	}
	return vocab, nil
}

// DefaultVocabulary returns the embedded skill/passion keyword families.
func DefaultVocabulary() Vocabulary {
	vocab, err := LoadVocabulary(defaultVocabularyJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary.json is invalid: %v", err))
	}
	return vocab
}

// Tags returns the vocabulary's theme tags in sorted order, so matching is
// deterministic regardless of map iteration.
func (v Vocabulary) Tags() []string {
	tags := make([]string, 0, len(v))
	for tag := range v {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
