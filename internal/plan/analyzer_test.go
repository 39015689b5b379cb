package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLookup implements VMLookup with a fixed name table.
type mockLookup struct {
	names map[string]string
}

func (m *mockLookup) LookupName(ctx context.Context, moid string) (string, error) {
	name, ok := m.names[moid]
	if !ok {
		return "", errors.New("vm not found")
	}
	return name, nil
}

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeMigrationPlan(t *testing.T) {
	path := writePlan(t, `
groups:
  - host: host-1
    destination: host-2
    vms: [vm-1, vm-2]
  - host: host-3
    vms: [vm-3]
`)

	lookup := &mockLookup{names: map[string]string{
		"vm-1": "web-01",
		"vm-2": "web-02",
		// vm-3 intentionally missing
	}}

	summary, err := NewAnalyzer(lookup).Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, TypeMigration, summary.MigrationType)
	assert.True(t, summary.HasDestination)
	assert.Equal(t, []string{"host-1", "host-3"}, summary.SourceServers)
	assert.Equal(t, []string{"host-2"}, summary.DestinationServers)
	assert.Equal(t, 3, summary.TotalVMsCount)

	require.Len(t, summary.AffectedVMs, 3)
	assert.Equal(t, VMInfo{Moid: "vm-1", Name: "web-01", SourceServer: "host-1", DestinationServer: "host-2"}, summary.AffectedVMs[0])
	assert.Equal(t, VMInfo{Moid: "vm-2", Name: "web-02", SourceServer: "host-1", DestinationServer: "host-2"}, summary.AffectedVMs[1])
	// Failed lookup leaves the name empty without failing analysis.
	assert.Equal(t, VMInfo{Moid: "vm-3", SourceServer: "host-3"}, summary.AffectedVMs[2])
}

func TestAnalyzeShutdownPlan(t *testing.T) {
	path := writePlan(t, `
upsGracePeriod: 120
groups:
  - host: host-1
    vms: [vm-1]
  - host: host-2
    vms: [vm-2, vm-3]
`)

	summary, err := NewAnalyzer(nil).Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, TypeShutdown, summary.MigrationType)
	assert.False(t, summary.HasDestination)
	assert.Empty(t, summary.DestinationServers)
	assert.Equal(t, 120, summary.UPSGracePeriod)
	assert.Equal(t, 3, summary.TotalVMsCount)
}

func TestAnalyzeRestartMarkerOverrides(t *testing.T) {
	path := writePlan(t, `
restart: true
groups:
  - host: host-1
    destination: host-2
    vms: [vm-1]
`)

	summary, err := NewAnalyzer(nil).Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, TypeRestart, summary.MigrationType)
}

func TestAnalyzeDeduplicatesHostsInOrder(t *testing.T) {
	path := writePlan(t, `
groups:
  - host: host-1
    destination: host-9
    vms: [vm-1]
  - host: host-1
    destination: host-9
    vms: [vm-2]
  - host: host-2
    destination: host-8
    vms: [vm-3]
`)

	summary, err := NewAnalyzer(nil).Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"host-1", "host-2"}, summary.SourceServers)
	assert.Equal(t, []string{"host-9", "host-8"}, summary.DestinationServers)
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := NewAnalyzer(nil).Analyze(context.Background(), "/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestAnalyzeMalformedDocument(t *testing.T) {
	path := writePlan(t, "groups: [not: {valid")

	_, err := NewAnalyzer(nil).Analyze(context.Background(), path)
	assert.Error(t, err)
}

func TestCatalogSeedsExistingPlans(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evacuate.yaml"), []byte("groups: []"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	catalog := NewCatalog(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, catalog.Start(ctx))

	assert.Equal(t, []string{"evacuate.yaml"}, catalog.Plans())
	assert.Equal(t, filepath.Join(dir, "evacuate.yaml"), catalog.Resolve("evacuate.yaml"))
}
