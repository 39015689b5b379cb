package plan

import (
	"context"
	"fmt"
	"os"

	"vmflow/pkg/logging"

	"gopkg.in/yaml.v3"
)

const subsystem = "PlanAnalyzer"

// MigrationType classifies what a plan asks the estate to do.
type MigrationType string

const (
	TypeMigration MigrationType = "migration"
	TypeShutdown  MigrationType = "shutdown"
	TypeRestart   MigrationType = "restart"
)

// VMInfo describes one affected virtual machine. Name is best-effort
// enrichment and may be empty when the lookup collaborator fails.
type VMInfo struct {
	Moid              string `json:"moid"`
	Name              string `json:"name,omitempty"`
	SourceServer      string `json:"sourceServer"`
	DestinationServer string `json:"destinationServer,omitempty"`
}

// Summary is the typed digest of one plan document, derived once per
// execution and kept only for the lifetime of that run.
type Summary struct {
	MigrationType      MigrationType `json:"migrationType"`
	SourceServers      []string      `json:"sourceServers"`
	DestinationServers []string      `json:"destinationServers"`
	AffectedVMs        []VMInfo      `json:"affectedVms"`
	TotalVMsCount      int           `json:"totalVmsCount"`
	HasDestination     bool          `json:"hasDestination"`
	UPSGracePeriod     int           `json:"upsGracePeriod,omitempty"`
}

// VMLookup resolves a VM identifier to a human-readable display name.
// The analyzer swallows lookup failures; enrichment is never required.
type VMLookup interface {
	LookupName(ctx context.Context, moid string) (string, error)
}

// planDocument is the on-disk plan shape: ordered server groups, each
// with a host, an optional destination, and an ordered VM list.
type planDocument struct {
	Restart        bool        `yaml:"restart,omitempty"`
	UPSGracePeriod int         `yaml:"upsGracePeriod,omitempty"`
	Groups         []planGroup `yaml:"groups"`
}

type planGroup struct {
	Host        string   `yaml:"host"`
	Destination string   `yaml:"destination,omitempty"`
	VMs         []string `yaml:"vms"`
}

// Analyzer parses plan documents into summaries.
type Analyzer struct {
	lookup VMLookup
}

// NewAnalyzer creates an analyzer. lookup may be nil, in which case no
// name enrichment is attempted.
func NewAnalyzer(lookup VMLookup) *Analyzer {
	return &Analyzer{lookup: lookup}
}

// Analyze parses the plan document at path and derives its summary.
// Callers on the execution path must treat a returned error as advisory:
// plan analysis feeds reporting, not execution.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}

	var doc planDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}

	summary := &Summary{
		SourceServers:      dedupedHosts(doc.Groups, func(g planGroup) string { return g.Host }),
		DestinationServers: dedupedHosts(doc.Groups, func(g planGroup) string { return g.Destination }),
		UPSGracePeriod:     doc.UPSGracePeriod,
	}
	summary.HasDestination = len(summary.DestinationServers) > 0

	switch {
	case doc.Restart:
		summary.MigrationType = TypeRestart
	case summary.HasDestination:
		summary.MigrationType = TypeMigration
	default:
		summary.MigrationType = TypeShutdown
	}

	for _, g := range doc.Groups {
		for _, moid := range g.VMs {
			vm := VMInfo{
				Moid:              moid,
				SourceServer:      g.Host,
				DestinationServer: g.Destination,
			}
			if a.lookup != nil {
				name, err := a.lookup.LookupName(ctx, moid)
				if err != nil {
					logging.Debug(subsystem, "Name lookup failed for %s: %v", moid, err)
				} else {
					vm.Name = name
				}
			}
			summary.AffectedVMs = append(summary.AffectedVMs, vm)
		}
	}
	summary.TotalVMsCount = len(summary.AffectedVMs)

	return summary, nil
}

// dedupedHosts collects the non-empty host identifiers across groups,
// preserving order of first appearance.
func dedupedHosts(groups []planGroup, pick func(planGroup) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, g := range groups {
		host := pick(g)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, host)
	}
	return out
}
