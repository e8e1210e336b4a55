package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/imgport/internal/domain"
)

// decodeOutcome turns the submit answer into exactly one outcome shape.
// 202 Accepted or a job id means deferred; anything else finished inline.
func decodeOutcome(statusCode int, body []byte) (domain.ImportOutcome, error) {
	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse import response: %w", err)
	}

	if statusCode == http.StatusAccepted || resp.JobID != "" {
		if resp.JobID == "" {
			return nil, fmt.Errorf("deferred import response has no job_id")
		}
		return domain.DeferredOutcome{
			JobID:         resp.JobID,
			TotalEstimate: deref(resp.TotalImages),
			Message:       resp.Message,
		}, nil
	}

	imported, failed := len(resp.Imported), len(resp.Failed)
	total := imported + failed
	switch {
	case resp.TotalFound != nil:
		total = *resp.TotalFound
	case resp.TotalImages != nil:
		total = *resp.TotalImages
	}

	return domain.ImmediateOutcome{
		TotalFound:    total,
		ImportedCount: imported,
		FailedCount:   failed,
		Message:       resp.Message,
	}, nil
}

// mapJobStatus converts a poll answer to a domain snapshot
func mapJobStatus(s statusResponse) domain.JobStatus {
	state := domain.JobProcessing
	if strings.EqualFold(s.Status, "completed") {
		state = domain.JobCompleted
	}
	return domain.JobStatus{
		State:     state,
		Total:     s.Total,
		Processed: s.Processed,
		Failed:    s.Failed,
	}
}

// mapImage converts one wire record
func mapImage(d imageDTO) domain.ImageRecord {
	return domain.ImageRecord{
		ID:              string(d.ID),
		Name:            d.Name,
		SizeBytes:       d.Size,
		MimeType:        d.MimeType,
		StorageProvider: d.StorageProvider,
		StoragePath:     d.StoragePath,
	}
}

// mapCatalogPage converts a listing answer. Page numbers never drop below 1.
func mapCatalogPage(resp imagesResponse, requested int) domain.CatalogPage {
	items := make([]domain.ImageRecord, 0, len(resp.Images))
	for _, img := range resp.Images {
		items = append(items, mapImage(img))
	}
	page := resp.Page
	if page < 1 {
		page = requested
	}
	return domain.CatalogPage{
		PageNumber: max(page, 1),
		TotalPages: max(resp.TotalPages, 1),
		TotalItems: max(resp.Total, len(items)),
		Items:      items,
	}
}

// decodeStats reads the flat stats object, collecting every <provider>_images key.
func decodeStats(body []byte) (domain.CatalogStats, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("failed to parse stats: %w", err)
	}

	stats := domain.CatalogStats{ProviderCounts: make(map[string]int)}
	for key, value := range raw {
		if string(value) == "null" {
			continue
		}
		var err error
		switch key {
		case statsTotalImages:
			err = json.Unmarshal(value, &stats.TotalImages)
		case statsTotalSizeMB:
			err = json.Unmarshal(value, &stats.TotalSizeMB)
		case statsTotalSizeBytes:
			var n json.Number
			if err = json.Unmarshal(value, &n); err == nil {
				stats.TotalSizeBytes, err = n.Int64()
			}
		default:
			name, ok := providerName(key)
			if !ok {
				continue
			}
			var n json.Number
			if err = json.Unmarshal(value, &n); err == nil {
				var count int64
				count, err = n.Int64()
				stats.ProviderCounts[name] = int(count)
			}
		}
		if err != nil {
			return domain.CatalogStats{}, fmt.Errorf("failed to parse stats field %q: %w", key, err)
		}
	}
	return stats, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
