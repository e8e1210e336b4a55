package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/imgport/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "imgport/1.0"
)

// Client implements domain.ImportGateway and domain.CatalogGateway over the
// import service's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new gateway client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the endpoint every request targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request and returns the status code and body of
// a 2xx answer. Transport failures wrap domain.ErrServerOffline; other
// statuses come back as *domain.APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("gateway request", "method", method, "url", reqURL, "requestID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return 0, nil, ctxErr
		}
		c.logger.Warn("gateway request failed", "method", method, "url", reqURL, "error", err)
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrServerOffline, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil {
			apiErr.Message = errResp.Error
			if apiErr.Message == "" {
				apiErr.Message = errResp.Message
			}
		}
		c.logger.Error("gateway request error", "status", resp.StatusCode, "url", reqURL, "message", apiErr.Message)
		return resp.StatusCode, nil, apiErr
	}

	return resp.StatusCode, data, nil
}

// SubmitImport posts a folder import and decodes which shape came back
func (c *Client) SubmitImport(ctx context.Context, source string, req domain.ImportRequest) (domain.ImportOutcome, error) {
	path := "/import/" + url.PathEscape(source)
	status, body, err := c.doRequest(ctx, http.MethodPost, path, nil, submitRequest{FolderURL: req.FolderReference})
	if err != nil {
		return nil, err
	}

	outcome, err := decodeOutcome(status, body)
	if err != nil {
		c.logger.Error("failed to decode import response", "error", err, "bodyLen", len(body))
		return nil, err
	}
	return outcome, nil
}

// JobStatus polls a deferred import job
func (c *Client) JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	path := "/import/status/" + url.PathEscape(jobID)
	_, body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.JobStatus{}, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
		}
		return domain.JobStatus{}, err
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.JobStatus{}, fmt.Errorf("failed to parse job status: %w", err)
	}
	return mapJobStatus(resp), nil
}

// ListImages returns one page of the catalog
func (c *Client) ListImages(ctx context.Context, page, perPage int) (domain.CatalogPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(page, 1)))
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	_, body, err := c.doRequest(ctx, http.MethodGet, "/images", query, nil)
	if err != nil {
		return domain.CatalogPage{}, err
	}

	var resp imagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.CatalogPage{}, fmt.Errorf("failed to parse images: %w", err)
	}
	return mapCatalogPage(resp, page), nil
}

// GetImage returns a single image record
func (c *Client) GetImage(ctx context.Context, id string) (*domain.ImageRecord, error) {
	_, body, err := c.doRequest(ctx, http.MethodGet, "/images/"+url.PathEscape(id), nil, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, id)
		}
		return nil, err
	}

	var dto imageDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to parse image: %w", err)
	}
	img := mapImage(dto)
	return &img, nil
}

// DeleteImage removes an image from the catalog and its storage
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	_, _, err := c.doRequest(ctx, http.MethodDelete, "/images/"+url.PathEscape(id), nil, nil)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", domain.ErrImageNotFound, id)
	}
	return err
}

// Stats returns aggregate catalog statistics
func (c *Client) Stats(ctx context.Context) (domain.CatalogStats, error) {
	_, body, err := c.doRequest(ctx, http.MethodGet, "/stats", nil, nil)
	if err != nil {
		return domain.CatalogStats{}, err
	}
	return decodeStats(body)
}

func isNotFound(err error) bool {
	var apiErr *domain.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
