package analyzer

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PatternClass names a bucket of patterns within a category.
type PatternClass string

const (
	PatternClassStartup     PatternClass = "startup"
	PatternClassError       PatternClass = "error"
	PatternClassPerformance PatternClass = "performance"
	PatternClassWarning     PatternClass = "warning"
	PatternClassSuccess     PatternClass = "success"
	PatternClassFailure     PatternClass = "failure"
	PatternClassInfo        PatternClass = "info"
)

type patternOutcome int

const (
	outcomeNone patternOutcome = iota
	outcomeError
	outcomeWarning
	outcomeInsight
)

// outcome routes a class by substring of its name: "error" wins over "warning",
// which wins over "success". A class named e.g. "error_recovery_success" is
// therefore an error class. Classes matching none of them are counted but
// produce no findings.
func (c PatternClass) outcome() patternOutcome {
	name := string(c)
	switch {
	case strings.Contains(name, "error"):
		return outcomeError
	case strings.Contains(name, "warning"):
		return outcomeWarning
	case strings.Contains(name, "success"):
		return outcomeInsight
	default:
		return outcomeNone
	}
}

// PatternGroup is an ordered list of case-insensitive regular expressions of one class.
type PatternGroup struct {
	Class    PatternClass `yaml:"class" json:"class"`
	Patterns []string     `yaml:"patterns" json:"patterns"`
}

// PatternRules are the pattern groups applied to one log source, in evaluation order.
type PatternRules []PatternGroup

type compiledPattern struct {
	class   PatternClass
	pattern string
	re      *regexp.Regexp
}

func (r PatternRules) compile() ([]compiledPattern, error) {
	compiled := []compiledPattern{}
	for _, group := range r {
		for _, pattern := range group.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to compile %s pattern %q", group.Class, pattern)
			}
			compiled = append(compiled, compiledPattern{
				class:   group.Class,
				pattern: pattern,
				re:      re,
			})
		}
	}
	return compiled, nil
}

// Rule set keys. Molecule rules are shared by every scenario log.
const (
	RulesContainer        = "container"
	RulesDocker           = "docker"
	RulesMolecule         = "molecule"
	RulesTailscaleService = "tailscale_service"
)

// RuleSet maps a rule set key to the rules of that log source.
type RuleSet map[string]PatternRules

// DefaultRuleSet returns the built-in rules for every text log source.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		RulesContainer: {
			{Class: PatternClassStartup, Patterns: []string{
				`macOS.*boot`,
				`System.*ready`,
				`login.*window`,
				`display.*manager`,
			}},
			{Class: PatternClassError, Patterns: []string{
				`kernel.*panic`,
				`segmentation.*fault`,
				`panic:`,
				`fatal.*error`,
				`core.*dump`,
			}},
			{Class: PatternClassPerformance, Patterns: []string{
				`CPU.*usage`,
				`memory.*pressure`,
				`disk.*I/O`,
				`network.*timeout`,
			}},
		},
		RulesDocker: {
			{Class: PatternClassStartup, Patterns: []string{
				`Creating.*macos`,
				`Starting.*macos`,
				`Container.*healthy`,
			}},
			{Class: PatternClassError, Patterns: []string{
				`failed.*start`,
				`port.*already.*allocated`,
				`network.*error`,
				`permission.*denied`,
			}},
			{Class: PatternClassWarning, Patterns: []string{
				`deprecated`,
				`warning`,
				`restart.*policy`,
			}},
		},
		RulesMolecule: {
			{Class: PatternClassSuccess, Patterns: []string{
				`PLAY RECAP.*ok=.*changed=.*unreachable=.*failed=0`,
				`converge.*completed`,
				`verify.*completed`,
				`Test.*successful`,
			}},
			{Class: PatternClassFailure, Patterns: []string{
				`PLAY RECAP.*failed=[1-9]`,
				`TASK.*failed`,
				`fatal.*failed`,
				`FAILED! =>`,
				`AssertionError`,
			}},
			{Class: PatternClassPerformance, Patterns: []string{
				`elapsed.*time`,
				`task.*duration`,
				`playbook.*execution`,
			}},
		},
		RulesTailscaleService: {
			{Class: PatternClassError, Patterns: []string{
				`error`,
				`failed.*connect`,
				`authentication.*failed`,
				`network.*unreachable`,
			}},
			{Class: PatternClassInfo, Patterns: []string{
				`starting.*tailscaled`,
				`connected.*to.*control`,
				`route.*added`,
				`dns.*configured`,
			}},
		},
	}
}

// RuleOverride changes the rules of one source. With Replace set the groups
// replace the built-in rules; otherwise patterns are appended to the group of the
// same class, and unknown classes are added after the existing groups.
type RuleOverride struct {
	Replace bool           `yaml:"replace"`
	Groups  []PatternGroup `yaml:"groups"`
}

// RulesFile is the YAML document accepted by --rules.
type RulesFile struct {
	Sources map[string]RuleOverride `yaml:"sources"`
}

// LoadRuleSet applies the overrides in a rules file on top of the default rule set.
// Every pattern is compiled so a bad expression is reported before any analysis starts.
func LoadRuleSet(data []byte) (RuleSet, error) {
	rulesFile := RulesFile{}
	if err := yaml.Unmarshal(data, &rulesFile); err != nil {
		return nil, errors.Wrap(err, "failed to parse rules file")
	}

	rules := DefaultRuleSet()
	for source, override := range rulesFile.Sources {
		if override.Replace {
			rules[source] = append(PatternRules{}, override.Groups...)
		} else {
			rules[source] = mergeRules(rules[source], override.Groups)
		}

		if _, err := rules[source].compile(); err != nil {
			return nil, errors.Wrapf(err, "invalid rules for %s", source)
		}
	}

	return rules, nil
}

func mergeRules(base PatternRules, extra []PatternGroup) PatternRules {
	merged := make(PatternRules, 0, len(base)+len(extra))
	for _, group := range base {
		merged = append(merged, PatternGroup{
			Class:    group.Class,
			Patterns: append([]string{}, group.Patterns...),
		})
	}

	for _, group := range extra {
		found := false
		for i := range merged {
			if merged[i].Class == group.Class {
				merged[i].Patterns = append(merged[i].Patterns, group.Patterns...)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, PatternGroup{
				Class:    group.Class,
				Patterns: append([]string{}, group.Patterns...),
			})
		}
	}

	return merged
}
