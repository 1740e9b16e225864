package seed

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseNestedCatalog(t *testing.T) {
	raw := []byte(`
sectors:
  - name: Infrastructure
    subsectors: [Roads, Water]
goals:
  - description: Improve connectivity
    kras:
      - name: Road network
        kpis:
          - name: Kilometres paved
            measures: [Contracts signed, Kilometres inspected]
`)
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(d.Sectors) != 1 || len(d.Sectors[0].Subsectors) != 2 {
		t.Fatalf("unexpected sectors %+v", d.Sectors)
	}
	kpi := d.Goals[0].KRAs[0].KPIs[0]
	if kpi.Name != "Kilometres paved" || len(kpi.Measures) != 2 {
		t.Fatalf("unexpected kpi %+v", kpi)
	}
}

func TestParseRejectsUnnamedSector(t *testing.T) {
	if _, err := Parse([]byte("sectors:\n  - subsectors: [A]\n")); err == nil {
		t.Fatal("expected error for sector without name")
	}
}

func TestBundledReferenceFileParses(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "..", "seed", "reference.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("reference seed not found: %v", err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(d.Sectors) == 0 || len(d.Goals) == 0 {
		t.Fatal("expected sectors and goals in the reference seed")
	}
}
