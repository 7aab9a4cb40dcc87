package usecases

import (
	"fmt"
	"strings"
)

type Category string

const (
	WorkStudiesStress   Category = "Work/Studies Stress"
	Relationships       Category = "Relationships"
	LonelinessIsolation Category = "Loneliness & Isolation"
	SelfDoubt           Category = "Self-Doubt & Low Confidence"
	AnxietyOverthinking Category = "Anxiety & Overthinking"
	ExcitementAchieve   Category = "Excitement & Achievements"
	General             Category = "General"
)

// TriggerRule maps a category to the keywords that select it.
type TriggerRule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// DefaultTriggerRules is checked top to bottom; the first rule with a matching keyword wins.
var DefaultTriggerRules = []TriggerRule{
	{WorkStudiesStress, []string{"exam", "deadline", "study", "work", "project", "stress", "assignment", "burnout"}},
	{Relationships, []string{"friend", "family", "love", "relationship", "breakup", "fight", "lonely"}},
	{LonelinessIsolation, []string{"alone", "isolated", "ignored", "nobody", "no one"}},
	{SelfDoubt, []string{"not good enough", "fail", "useless", "failure", "doubt", "hopeless"}},
	{AnxietyOverthinking, []string{"worry", "anxious", "overthinking", "nervous", "scared", "fear"}},
	{ExcitementAchieve, []string{"happy", "excited", "promotion", "success", "win", "proud"}},
}

// Classifier does case-insensitive substring matching, so "win" also matches
// "window". That imprecision is kept on purpose.
type Classifier struct {
	rules []TriggerRule
}

func NewClassifier(rules []TriggerRule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("usecases.NewClassifier: no trigger rules")
	}

	seen := map[Category]bool{}
	normalized := make([]TriggerRule, 0, len(rules))
	for i, rule := range rules {
		name := Category(strings.TrimSpace(string(rule.Category)))
		if name == "" {
			return nil, fmt.Errorf("usecases.NewClassifier: rule %d has no category", i)
		}
		if name == General {
			return nil, fmt.Errorf("usecases.NewClassifier: %q is reserved for unmatched text", General)
		}
		if seen[name] {
			return nil, fmt.Errorf("usecases.NewClassifier: duplicate category %q", name)
		}
		seen[name] = true

		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("usecases.NewClassifier: category %q has no keywords", name)
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("usecases.NewClassifier: category %q has an empty keyword", name)
			}
			keywords = append(keywords, kw)
		}

		normalized = append(normalized, TriggerRule{Category: name, Keywords: keywords})
	}

	return &Classifier{rules: normalized}, nil
}

func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultTriggerRules)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) Classify(text string) Category {
	lowered := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Category
			}
		}
	}
	return General
}

// Categories lists every label Classify can return, in priority order, General last.
func (c *Classifier) Categories() []Category {
	out := make([]Category, 0, len(c.rules)+1)
	for _, rule := range c.rules {
		out = append(out, rule.Category)
	}
	return append(out, General)
}
