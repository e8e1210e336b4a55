package domain

import "time"

// ImageRecord is one imported image as reported by the catalog gateway.
// The client treats it as an immutable snapshot.
type ImageRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SizeBytes       int64  `json:"size"`
	MimeType        string `json:"mime_type"`
	StorageProvider string `json:"storage_provider"`
	StoragePath     string `json:"storage_path"`
}

// CatalogPage is one page of the imported image catalog.
type CatalogPage struct {
	PageNumber int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalItems int           `json:"total_items"`
	Items      []ImageRecord `json:"items"`
}

// CatalogStats aggregates the whole catalog.
type CatalogStats struct {
	TotalImages    int            `json:"total_images"`
	TotalSizeMB    float64        `json:"total_size_mb"`
	TotalSizeBytes int64          `json:"total_size_bytes,omitempty"`
	ProviderCounts map[string]int `json:"provider_counts"`
}

// ImportSummary describes a finished import. It is the payload of the
// completion notification and the record kept in import history.
type ImportSummary struct {
	JobID           string    `json:"job_id,omitempty"`
	FolderReference string    `json:"folder_reference"`
	Total           int       `json:"total"`
	Processed       int       `json:"processed"`
	Failed          int       `json:"failed"`
	Deferred        bool      `json:"deferred"`
	Message         string    `json:"message"`
	CompletedAt     time.Time `json:"completed_at"`
}

// PartialFailure reports whether some images of the import failed.
func (s ImportSummary) PartialFailure() bool {
	return s.Failed > 0
}
