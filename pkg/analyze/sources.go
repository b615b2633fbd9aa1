package analyzer

import (
	"fmt"
	"path"
	"strings"
)

// SourceAnalyzer analyzes one artifact of a log bundle and records its findings in a collector.
// Analyze records a failure as an issue before returning it, so a returned error
// never stops sibling sources from running.
type SourceAnalyzer interface {
	Title() string
	IsExcluded(bundle *LogBundle) bool
	Analyze(bundle *LogBundle, collector *Collector) error
}

// Paths of the artifacts inside a log bundle.
const (
	ContainerLogFile        = "container/container-recent.log"
	ContainerInspectFile    = "container/container-inspect.json"
	DockerComposeLogFile    = "docker/docker-compose.log"
	MoleculeLogGlob         = "molecule/*.log"
	TailscaleStatusFile     = "tailscale/tailscale-status.txt"
	TailscaleStatusJSONFile = "tailscale/tailscale-status.json"
	TailscaleJournalFile    = "tailscale/tailscaled-journal.log"
	HostSystemInfoFile      = "system/host-system-info.txt"
	ContainerSystemInfoFile = "system/container-system-info.txt"
)

// GetSourceAnalyzers returns the analyzers for a bundle in the order they run:
// container, docker, molecule, tailscale, system.
func GetSourceAnalyzers(bundle *LogBundle, rules RuleSet) []SourceAnalyzer {
	if rules == nil {
		rules = DefaultRuleSet()
	}

	analyzers := []SourceAnalyzer{
		&AnalyzeLogFile{FileName: ContainerLogFile, Category: "container", Rules: rules[RulesContainer]},
		&AnalyzeContainerInspect{FileName: ContainerInspectFile},
		&AnalyzeLogFile{FileName: DockerComposeLogFile, Category: "docker", Rules: rules[RulesDocker]},
	}

	moleculeLogs, err := bundle.FindFiles(MoleculeLogGlob)
	if err != nil {
		analyzers = append(analyzers, &moleculeListingFailure{err: err})
	}
	for _, name := range moleculeLogs {
		analyzers = append(analyzers, &AnalyzeLogFile{
			FileName: name,
			Category: moleculeCategory(name),
			Rules:    rules[RulesMolecule],
		})
	}

	analyzers = append(analyzers,
		&AnalyzeTailscaleStatus{FileName: TailscaleStatusFile},
		&AnalyzeTailscaleJSONStatus{FileName: TailscaleStatusJSONFile},
		&AnalyzeLogFile{FileName: TailscaleJournalFile, Category: "tailscale_service", Rules: rules[RulesTailscaleService]},
		&AnalyzeSystemInfo{FileName: HostSystemInfoFile, Category: "host"},
		&AnalyzeSystemInfo{FileName: ContainerSystemInfoFile, Category: "container"},
	)

	return analyzers
}

// moleculeListingFailure stands in for the molecule logs when their directory
// cannot be listed.
type moleculeListingFailure struct {
	err error
}

func (a *moleculeListingFailure) Title() string {
	return "Molecule Logs"
}

func (a *moleculeListingFailure) IsExcluded(bundle *LogBundle) bool {
	return false
}

func (a *moleculeListingFailure) Analyze(bundle *LogBundle, collector *Collector) error {
	collector.AddIssue(moleculeCategoryPrefix, fmt.Sprintf("Failed to list molecule logs: %v", a.err), SeverityError)
	return a.err
}

const moleculeCategoryPrefix = "molecule"

// moleculeCategory derives "molecule_default_scenario" from "molecule/default-scenario.log".
func moleculeCategory(name string) string {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	return moleculeCategoryPrefix + "_" + strings.ReplaceAll(stem, "-", "_")
}
