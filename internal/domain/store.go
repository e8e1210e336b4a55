package domain

// Store handles the local cache (BoltDB + memory).
// The gallery reads it to show the last known catalog before the network answers.
type Store interface {
	// === Catalog ===
	GetCatalogPage(page int) (CatalogPage, bool)
	SaveCatalogPage(page CatalogPage) error

	GetStats() (CatalogStats, bool)
	SaveStats(stats CatalogStats) error

	// InvalidateCatalog drops every cached page and the stats snapshot.
	InvalidateCatalog()

	// === Import history ===
	RecordImport(summary ImportSummary) error
	ImportHistory() ([]ImportSummary, error)

	InvalidateAll()

	Close() error
}
