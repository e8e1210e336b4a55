package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/mmcdole/imgport/internal/adapter/gateway"
	"github.com/mmcdole/imgport/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServer(t *testing.T, cfg Config) *gateway.Client {
	t.Helper()
	srv := New(cfg, adapter.NullLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return gateway.NewClient(ts.URL+"/api", 5*time.Second, adapter.NullLogger())
}

func submit(t *testing.T, c *gateway.Client, ref string) domain.ImportOutcome {
	t.Helper()
	req, err := domain.NewImportRequest(ref)
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := c.SubmitImport(context.Background(), "google-drive", req)
	if err != nil {
		t.Fatalf("SubmitImport: %v", err)
	}
	return outcome
}

func TestExtractFolderID(t *testing.T) {
	tests := map[string]string{
		"https://drive.google.com/drive/folders/1AbC-d_9?usp=sharing": "1AbC-d_9",
		"https://drive.google.com/open?id=xyz_123":                    "xyz_123",
		"  bare-id  ": "bare-id",
	}
	for in, want := range tests {
		if got := extractFolderID(in); got != want {
			t.Errorf("extractFolderID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListFolderIsDeterministic(t *testing.T) {
	a := listFolder("holiday", 20)
	b := listFolder("holiday", 20)
	if len(a) == 0 || len(a) != len(b) || a[0] != b[0] {
		t.Fatalf("expected identical folder listings, got %d and %d", len(a), len(b))
	}
	if len(a) > 20 {
		t.Errorf("expected at most 20 images, got %d", len(a))
	}
	if got := listFolder("empty-folder", 20); len(got) != 0 {
		t.Errorf("expected empty folder, got %d images", len(got))
	}
}

func TestImmediateImport(t *testing.T) {
	c := testServer(t, Config{ImmediateThreshold: 3, MaxFolderImages: 1})

	outcome := submit(t, c, "https://drive.google.com/drive/folders/one")
	immediate, ok := outcome.(domain.ImmediateOutcome)
	if !ok {
		t.Fatalf("expected ImmediateOutcome, got %T", outcome)
	}
	if immediate.TotalFound != 1 || immediate.ImportedCount != 1 || immediate.FailedCount != 0 {
		t.Errorf("unexpected outcome: %+v", immediate)
	}

	// Importing the same folder again fails on the duplicate.
	again := submit(t, c, "https://drive.google.com/drive/folders/one").(domain.ImmediateOutcome)
	if again.ImportedCount != 0 || again.FailedCount != 1 {
		t.Errorf("expected duplicate to fail, got %+v", again)
	}
}

func TestEmptyFolder(t *testing.T) {
	c := testServer(t, DefaultConfig())

	outcome := submit(t, c, "https://drive.google.com/drive/folders/empty42")
	immediate, ok := outcome.(domain.ImmediateOutcome)
	if !ok {
		t.Fatalf("expected ImmediateOutcome, got %T", outcome)
	}
	if immediate.TotalFound != 0 || immediate.Message != "No images found in the folder" {
		t.Errorf("unexpected outcome: %+v", immediate)
	}
}

func TestDeferredImportEndToEnd(t *testing.T) {
	c := testServer(t, Config{ImmediateThreshold: 0, StepPerPoll: 4, FailEvery: 3, MaxFolderImages: 10})
	ctx := context.Background()

	outcome := submit(t, c, "https://drive.google.com/drive/folders/trip")
	deferred, ok := outcome.(domain.DeferredOutcome)
	if !ok {
		t.Fatalf("expected DeferredOutcome, got %T", outcome)
	}
	if deferred.JobID == "" || deferred.TotalEstimate < 1 {
		t.Fatalf("unexpected outcome: %+v", deferred)
	}

	var status domain.JobStatus
	for i := 0; i < 10; i++ {
		var err error
		status, err = c.JobStatus(ctx, deferred.JobID)
		if err != nil {
			t.Fatalf("JobStatus: %v", err)
		}
		if status.Processed+status.Failed > status.Total {
			t.Fatalf("inconsistent status %+v", status)
		}
		if status.State == domain.JobCompleted {
			break
		}
	}
	if status.State != domain.JobCompleted {
		t.Fatalf("job never completed: %+v", status)
	}
	if status.Total != deferred.TotalEstimate || status.Processed+status.Failed != status.Total {
		t.Errorf("unexpected final status %+v for %d images", status, deferred.TotalEstimate)
	}
	if status.Failed != status.Total/3 {
		t.Errorf("expected every third image to fail, got %d of %d", status.Failed, status.Total)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalImages != status.Processed || stats.ProviderCounts["aws"] != status.Processed {
		t.Errorf("stats %+v do not match %d processed images", stats, status.Processed)
	}

	page, err := c.ListImages(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	wantPages := max((status.Processed+1)/2, 1)
	if page.TotalPages != wantPages || page.TotalItems != status.Processed {
		t.Errorf("expected %d pages of %d items, got %+v", wantPages, status.Processed, page)
	}

	if status.Processed > 0 {
		first := page.Items[0]
		img, err := c.GetImage(ctx, first.ID)
		if err != nil || img.Name != first.Name || img.StorageProvider != "aws" {
			t.Fatalf("GetImage(%s) = %+v, %v", first.ID, img, err)
		}
		if err := c.DeleteImage(ctx, first.ID); err != nil {
			t.Fatalf("DeleteImage: %v", err)
		}
		if _, err := c.GetImage(ctx, first.ID); !errors.Is(err, domain.ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound after delete, got %v", err)
		}
	}
}

func TestUnknownJobAndSource(t *testing.T) {
	c := testServer(t, DefaultConfig())

	if _, err := c.JobStatus(context.Background(), "nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}

	_, err := c.SubmitImport(context.Background(), "dropbox", domain.ImportRequest{FolderReference: "abc"})
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown source, got %v", err)
	}
}

func TestEmptyCatalogPage(t *testing.T) {
	c := testServer(t, DefaultConfig())

	page, err := c.ListImages(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if page.PageNumber != 1 || page.TotalPages != 1 || len(page.Items) != 0 {
		t.Errorf("unexpected empty page %+v", page)
	}
}
