package usecases

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type triggerFile struct {
	Triggers []TriggerRule `yaml:"triggers"`
}

// ParseTriggerRules reads a YAML trigger table. List order is priority order:
//
//	triggers:
//	  - category: Work/Studies Stress
//	    keywords: [exam, deadline]
func ParseTriggerRules(data []byte) ([]TriggerRule, error) {
	var file triggerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse trigger rules: %w", err)
	}
	if len(file.Triggers) == 0 {
		return nil, fmt.Errorf("parse trigger rules: no triggers defined")
	}
	return file.Triggers, nil
}

// LoadClassifier returns the default classifier when path is empty,
// otherwise one built from the YAML file at path.
func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return DefaultClassifier(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger rules %s: %w", path, err)
	}

	rules, err := ParseTriggerRules(data)
	if err != nil {
		return nil, err
	}
	return NewClassifier(rules)
}
