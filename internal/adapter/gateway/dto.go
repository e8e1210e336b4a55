package gateway

import (
	"encoding/json"
	"strings"
)

// submitResponse covers both shapes POST /import/{source} can answer with.
// Which one it is gets decided once, in decodeOutcome.
type submitResponse struct {
	JobID       string            `json:"job_id,omitempty"`
	TotalImages *int              `json:"total_images,omitempty"`
	TotalFound  *int              `json:"total_found,omitempty"`
	Imported    []json.RawMessage `json:"imported,omitempty"`
	Failed      []json.RawMessage `json:"failed,omitempty"`
	Message     string            `json:"message,omitempty"`
}

type submitRequest struct {
	FolderURL string `json:"folder_url"`
}

// statusResponse is GET /import/status/{jobId}
type statusResponse struct {
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// imageDTO is the wire form of an image record
type imageDTO struct {
	ID              flexID `json:"id"`
	Name            string `json:"name"`
	Size            int64  `json:"size"`
	MimeType        string `json:"mime_type"`
	StorageProvider string `json:"storage_provider"`
	StoragePath     string `json:"storage_path"`
}

// imagesResponse is GET /images
type imagesResponse struct {
	Images     []imageDTO `json:"images"`
	Total      int        `json:"total,omitempty"`
	Page       int        `json:"page,omitempty"`
	PerPage    int        `json:"per_page,omitempty"`
	TotalPages int        `json:"total_pages"`
}

// errorResponse is the body of non-2xx answers
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

const (
	statsTotalImages    = "total_images"
	statsTotalSizeMB    = "total_size_mb"
	statsTotalSizeBytes = "total_size_bytes"
	providerKeySuffix   = "_images"
)

// providerName extracts "aws" from "aws_images"; ok is false for non-provider keys.
func providerName(key string) (string, bool) {
	if key == statsTotalImages || !strings.HasSuffix(key, providerKeySuffix) {
		return "", false
	}
	name := strings.TrimSuffix(key, providerKeySuffix)
	return name, name != ""
}
