package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/imgport/internal/domain"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	return NewClient(ts.URL+"/api", time.Second, nil), ts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestSubmitImport_Deferred(t *testing.T) {
	var gotPath, gotFolder, gotRequestID string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotFolder = body["folder_url"]
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":       "job-1",
			"total_images": 10,
			"message":      "Import started",
		})
	}))
	defer ts.Close()

	outcome, err := c.SubmitImport(context.Background(), "google-drive", domain.ImportRequest{FolderReference: "https://drive/folders/abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deferred, ok := outcome.(domain.DeferredOutcome)
	if !ok {
		t.Fatalf("expected DeferredOutcome, got %T", outcome)
	}
	if deferred.JobID != "job-1" || deferred.TotalEstimate != 10 {
		t.Errorf("unexpected outcome: %+v", deferred)
	}
	if gotPath != "/api/import/google-drive" {
		t.Errorf("expected path /api/import/google-drive, got %s", gotPath)
	}
	if gotFolder != "https://drive/folders/abc" {
		t.Errorf("expected folder_url to be sent, got %q", gotFolder)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestSubmitImport_Immediate(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want domain.ImmediateOutcome
	}{
		{
			name: "total_found",
			body: map[string]any{"total_found": 3, "imported": []any{map[string]any{"id": 1}, map[string]any{"id": 2}}, "failed": []any{"x.png"}},
			want: domain.ImmediateOutcome{TotalFound: 3, ImportedCount: 2, FailedCount: 1},
		},
		{
			name: "falls back to total_images",
			body: map[string]any{"total_images": 4, "imported": []any{1, 2, 3, 4}},
			want: domain.ImmediateOutcome{TotalFound: 4, ImportedCount: 4},
		},
		{
			name: "empty folder",
			body: map[string]any{"message": "No images found in the folder", "imported": []any{}, "failed": []any{}},
			want: domain.ImmediateOutcome{Message: "No images found in the folder"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tc.body)
			}))
			defer ts.Close()

			outcome, err := c.SubmitImport(context.Background(), "google-drive", domain.ImportRequest{FolderReference: "abc"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := outcome.(domain.ImmediateOutcome)
			if !ok {
				t.Fatalf("expected ImmediateOutcome, got %T", outcome)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestSubmitImport_ServerError(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid Google Drive folder URL"})
	}))
	defer ts.Close()

	_, err := c.SubmitImport(context.Background(), "google-drive", domain.ImportRequest{FolderReference: "abc"})
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Invalid Google Drive folder URL" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
	if domain.IsTransient(err) {
		t.Error("a 400 should not be transient")
	}
}

func TestJobStatus(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/import/status/job-1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Job not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "total": 10, "processed": 9, "failed": 1})
	}))
	defer ts.Close()

	status, err := c.JobStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.JobStatus{State: domain.JobCompleted, Total: 10, Processed: 9, Failed: 1}
	if status != want {
		t.Errorf("expected %+v, got %+v", want, status)
	}

	_, err = c.JobStatus(context.Background(), "missing")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestListImages(t *testing.T) {
	var gotQuery string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"images": []map[string]any{
				{"id": 7, "name": "a.png", "size": 1536, "mime_type": "image/png", "storage_provider": "aws", "storage_path": "images/a.png"},
			},
			"total":       41,
			"page":        2,
			"per_page":    20,
			"total_pages": 3,
		})
	}))
	defer ts.Close()

	page, err := c.ListImages(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "page=2&per_page=20" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if page.PageNumber != 2 || page.TotalPages != 3 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if img := page.Items[0]; img.ID != "7" || img.SizeBytes != 1536 || img.StorageProvider != "aws" {
		t.Errorf("unexpected image: %+v", img)
	}
}

func TestListImages_EmptyCatalog(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"images": []any{}, "total": 0, "total_pages": 0})
	}))
	defer ts.Close()

	page, err := c.ListImages(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PageNumber != 1 || page.TotalPages != 1 {
		t.Errorf("expected page 1 of 1, got %d of %d", page.PageNumber, page.TotalPages)
	}
}

func TestGetAndDeleteImage_NotFound(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Image not found"})
	}))
	defer ts.Close()

	if _, err := c.GetImage(context.Background(), "9"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("GetImage: expected ErrImageNotFound, got %v", err)
	}
	if err := c.DeleteImage(context.Background(), "9"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("DeleteImage: expected ErrImageNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total_images":     12,
			"total_size_bytes": 3145728,
			"total_size_mb":    3.0,
			"aws_images":       10,
			"azure_images":     2,
			"gcs_images":       nil,
		})
	}))
	defer ts.Close()

	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalImages != 12 || stats.TotalSizeMB != 3.0 || stats.TotalSizeBytes != 3145728 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.ProviderCounts["aws"] != 10 || stats.ProviderCounts["azure"] != 2 {
		t.Errorf("unexpected provider counts: %v", stats.ProviderCounts)
	}
	if _, ok := stats.ProviderCounts["gcs"]; ok {
		t.Error("null provider count should be skipped")
	}
}

func TestServerOffline(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.Stats(context.Background())
	if !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("expected ErrServerOffline, got %v", err)
	}
	if !domain.IsTransient(err) {
		t.Error("offline errors should be transient")
	}
}

func TestCanceledContext(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.JobStatus(ctx, "job-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
