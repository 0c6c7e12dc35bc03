// Package ruleset loads fingerprint rules from YAML files.
//
// A ruleset file is a YAML list:
//
//	- name: right rail
//	  fingerprint: 'id="definition-right-rail"'
//	- name: ad slots
//	  fingerprints:
//	    - 'class="border-box mobile-fixed-ad"'
//	    - 'class="abl mw-ad-slot-top"'
package ruleset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type RuleSet []Rule

type Rule struct {
	Name         string   `yaml:"name,omitempty"`
	Fingerprint  string   `yaml:"fingerprint,omitempty"`
	Fingerprints []string `yaml:"fingerprints,omitempty"`
}

// Load reads every .yml/.yaml file under the ';'-separated list of files or
// directories in rulePaths. Files are visited in lexical order per path, so
// the fingerprint order is stable. An empty rulePaths yields an empty set.
func Load(rulePaths string) (RuleSet, error) {
	var ruleSet RuleSet
	var errs []error

	for _, rulePath := range strings.Split(rulePaths, ";") {
		trimmedPath := strings.TrimSpace(rulePath)
		if trimmedPath == "" {
			continue
		}

		var rules RuleSet
		err := filepath.Walk(trimmedPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !(strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml")) {
				return nil
			}
			r, err := loadFile(path)
			if err != nil {
				return err
			}
			rules = append(rules, r...)
			return nil
		})

		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load rules from '%s': %w", trimmedPath, err))
		} else {
			ruleSet = append(ruleSet, rules...)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("errors while loading rulesets: %w", errors.Join(errs...))
	}
	return ruleSet, nil
}

func loadFile(path string) (RuleSet, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file '%s': %w", path, err)
	}
	var r RuleSet
	if err := yaml.Unmarshal(yamlFile, &r); err != nil {
		return nil, fmt.Errorf("syntax error in rules file '%s': %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file '%s': %w", path, err)
	}
	return r, nil
}

// Validate rejects rules without fingerprints and blank fingerprints.
func (rs RuleSet) Validate() error {
	for i, rule := range rs {
		fps := rule.All()
		if len(fps) == 0 {
			return fmt.Errorf("rule %d (%s) has no fingerprints", i, rule.Name)
		}
		for _, fp := range fps {
			if strings.TrimSpace(fp) == "" {
				return fmt.Errorf("rule %d (%s) has a blank fingerprint", i, rule.Name)
			}
		}
	}
	return nil
}

// All returns the rule's fingerprints, Fingerprint first.
func (r Rule) All() []string {
	var fps []string
	if r.Fingerprint != "" {
		fps = append(fps, r.Fingerprint)
	}
	return append(fps, r.Fingerprints...)
}

// Fingerprints flattens the set in rule order.
func (rs RuleSet) Fingerprints() []string {
	var fps []string
	for _, rule := range rs {
		fps = append(fps, rule.All()...)
	}
	return fps
}

func (rs RuleSet) Count() int {
	return len(rs)
}

func (rs RuleSet) FingerprintCount() int {
	return len(rs.Fingerprints())
}
