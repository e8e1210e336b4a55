package domain

import "context"

// ImportGateway submits folder imports and reports deferred job status.
type ImportGateway interface {
	// SubmitImport starts an import from source (e.g. "google-drive").
	SubmitImport(ctx context.Context, source string, req ImportRequest) (ImportOutcome, error)

	// JobStatus returns the current snapshot of a deferred job.
	// Returns ErrJobNotFound when the gateway no longer knows jobID.
	JobStatus(ctx context.Context, jobID string) (JobStatus, error)
}

// CatalogGateway exposes the imported image catalog.
type CatalogGateway interface {
	// ListImages returns one page; page numbers start at 1.
	ListImages(ctx context.Context, page, perPage int) (CatalogPage, error)

	GetImage(ctx context.Context, id string) (*ImageRecord, error)

	DeleteImage(ctx context.Context, id string) error

	Stats(ctx context.Context) (CatalogStats, error)
}

// Gateway is everything the remote import service offers.
type Gateway interface {
	ImportGateway
	CatalogGateway
}
