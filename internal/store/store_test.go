package store

import (
	"testing"
	"time"

	"github.com/mmcdole/imgport/internal/domain"
)

func openStores(t *testing.T) map[string]*CatalogStore {
	t.Helper()
	disk, err := NewCatalogStore(t.TempDir(), "http://localhost:5000/api")
	if err != nil {
		t.Fatalf("NewCatalogStore: %v", err)
	}
	mem, err := NewCatalogStore("", "")
	if err != nil {
		t.Fatalf("NewCatalogStore memory: %v", err)
	}
	t.Cleanup(func() {
		disk.Close()
		mem.Close()
	})
	return map[string]*CatalogStore{"bolt": disk, "memory": mem}
}

func TestCatalogRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			page := domain.CatalogPage{
				PageNumber: 2,
				TotalPages: 3,
				Items:      []domain.ImageRecord{{ID: "1", Name: "a.png", SizeBytes: 1024}},
			}
			if err := s.SaveCatalogPage(page); err != nil {
				t.Fatalf("SaveCatalogPage: %v", err)
			}
			got, ok := s.GetCatalogPage(2)
			if !ok {
				t.Fatal("expected cached page 2")
			}
			if got.TotalPages != 3 || len(got.Items) != 1 || got.Items[0].Name != "a.png" {
				t.Errorf("unexpected page: %+v", got)
			}
			if _, ok := s.GetCatalogPage(1); ok {
				t.Error("page 1 was never saved")
			}

			stats := domain.CatalogStats{TotalImages: 5, TotalSizeMB: 1.5, ProviderCounts: map[string]int{"aws": 5}}
			if err := s.SaveStats(stats); err != nil {
				t.Fatalf("SaveStats: %v", err)
			}
			gotStats, ok := s.GetStats()
			if !ok || gotStats.TotalImages != 5 || gotStats.ProviderCounts["aws"] != 5 {
				t.Errorf("unexpected stats: %+v (ok=%v)", gotStats, ok)
			}

			s.InvalidateCatalog()
			if _, ok := s.GetCatalogPage(2); ok {
				t.Error("page should be gone after InvalidateCatalog")
			}
			if _, ok := s.GetStats(); ok {
				t.Error("stats should be gone after InvalidateCatalog")
			}
		})
	}
}

func TestCatalogPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCatalogStore(dir, "http://a/api")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveStats(domain.CatalogStats{TotalImages: 9}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordImport(domain.ImportSummary{JobID: "j1", Processed: 9}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewCatalogStore(dir, "http://a/api")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if stats, ok := s.GetStats(); !ok || stats.TotalImages != 9 {
		t.Errorf("expected persisted stats, got %+v (ok=%v)", stats, ok)
	}
	history, err := s.ImportHistory()
	if err != nil || len(history) != 1 || history[0].JobID != "j1" {
		t.Errorf("expected persisted history, got %+v (err=%v)", history, err)
	}

	other, err := NewCatalogStore(dir, "http://b/api")
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if _, ok := other.GetStats(); ok {
		t.Error("a different server must not see this cache")
	}
}

func TestImportHistory(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
			for i, id := range []string{"old", "mid", "new"} {
				summary := domain.ImportSummary{JobID: id, CompletedAt: base.Add(time.Duration(i) * time.Minute)}
				if err := s.RecordImport(summary); err != nil {
					t.Fatalf("RecordImport: %v", err)
				}
			}

			history, err := s.ImportHistory()
			if err != nil {
				t.Fatalf("ImportHistory: %v", err)
			}
			if len(history) != 3 {
				t.Fatalf("expected 3 records, got %d", len(history))
			}
			if history[0].JobID != "new" || history[2].JobID != "old" {
				t.Errorf("expected newest first, got %s..%s", history[0].JobID, history[2].JobID)
			}

			s.InvalidateAll()
			if history, _ := s.ImportHistory(); len(history) != 0 {
				t.Errorf("expected empty history after InvalidateAll, got %d", len(history))
			}
		})
	}
}

func TestImportHistoryPruned(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i := range MaxHistory + 5 {
				if err := s.RecordImport(domain.ImportSummary{Total: i, CompletedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
					t.Fatalf("RecordImport: %v", err)
				}
			}
			history, err := s.ImportHistory()
			if err != nil {
				t.Fatal(err)
			}
			if len(history) != MaxHistory {
				t.Fatalf("expected %d records, got %d", MaxHistory, len(history))
			}
			if history[len(history)-1].Total != 5 {
				t.Errorf("expected oldest kept record to be #5, got #%d", history[len(history)-1].Total)
			}
		})
	}
}
