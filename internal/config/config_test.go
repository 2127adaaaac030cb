package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/me/esrt/pkg/model"
)

func TestLoadParsesTopology(t *testing.T) {
	doc := `
log_level: debug
xstreams:
  - name: es-0
    type: ULT
    scheduler:
      predef: BASIC
      pools:
        - kind: FIFO
          access: PR_SW
          automatic: true
audit:
  enabled: true
  db_path: ":memory:"
api:
  addr: ":9090"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	topo, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(topo.XStreams) != 1 {
		t.Fatalf("XStreams = %d, want 1", len(topo.XStreams))
	}
	xs := topo.XStreams[0]
	if xs.Sched.Predef != model.SchedBasic {
		t.Errorf("Predef = %v, want SchedBasic", xs.Sched.Predef)
	}
	if len(xs.Sched.Pools) != 1 || xs.Sched.Pools[0].Access != model.PRSW {
		t.Errorf("Pools = %+v, want one PR_SW pool", xs.Sched.Pools)
	}
	if !topo.Audit.Enabled || topo.API.Addr != ":9090" {
		t.Errorf("audit/api config not parsed: %+v", topo)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewPoolRespectsKind(t *testing.T) {
	fifo := NewPool("p1", PoolSpec{Kind: model.PoolFIFO, Access: model.PRW})
	if fifo.AccessMode() != model.PRW {
		t.Errorf("fifo access = %v, want PRW", fifo.AccessMode())
	}

	prio := NewPool("p2", PoolSpec{Kind: model.PoolPriority, Access: model.SRSW})
	if prio.AccessMode() != model.SRSW {
		t.Errorf("priority access = %v, want SRSW", prio.AccessMode())
	}
}

func TestDefaultTopology(t *testing.T) {
	topo := DefaultTopology()
	if len(topo.XStreams) != 1 {
		t.Fatalf("XStreams = %d, want 1", len(topo.XStreams))
	}
	if topo.API.Addr != ":8080" {
		t.Errorf("API.Addr = %q, want :8080", topo.API.Addr)
	}
}
