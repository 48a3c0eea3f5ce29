package scraperd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arun279/notebook-sources/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	apiPrefix      = "/api/v1"
	userAgent      = "nbsrc/1.0"
)

// Client implements domain.SourceClient against the scraper server's
// /api/v1 HTTP contract.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new scraper server client
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an API request and returns the status code and body.
// Transport-level failures map to domain.ErrServerOffline; HTTP status
// mapping is endpoint-specific and left to the callers.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) (int, []byte, error) {
	reqURL := c.baseURL + apiPrefix + path
	if query != nil {
		reqURL = reqURL + "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("scraperd request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		c.logger.Error("scraperd request failed", "error", err)
		return 0, nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

// errorDetail extracts the server's error detail for wrapping, if any.
func errorDetail(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return ""
}

func (c *Client) serverError(status int, body []byte) error {
	if detail := errorDetail(body); detail != "" {
		return fmt.Errorf("server returned %d: %s", status, detail)
	}
	return fmt.Errorf("server returned %d", status)
}

// SubmitParse begins asynchronous parsing of a source URL.
func (c *Client) SubmitParse(ctx context.Context, sourceURL string) (string, error) {
	status, body, err := c.doRequest(ctx, http.MethodPost, "/references", nil, parseRequest{URL: sourceURL})
	if err != nil {
		return "", err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return "", c.serverError(status, body)
	}

	var resp jobResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse job response: %w", err)
	}

	c.logger.Info("submitted parse job", "jobID", resp.JobID, "url", sourceURL)
	return resp.JobID, nil
}

// SubmitScrape begins scraping the given records.
func (c *Client) SubmitScrape(ctx context.Context, recordIDs []string, aggressive bool) (string, error) {
	payload := scrapeRequest{ReferenceIDs: recordIDs, Aggressive: aggressive}
	status, body, err := c.doRequest(ctx, http.MethodPost, "/scrape", nil, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return "", c.serverError(status, body)
	}

	var resp jobResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse job response: %w", err)
	}

	c.logger.Info("submitted scrape job", "jobID", resp.JobID, "records", len(recordIDs), "aggressive", aggressive)
	return resp.JobID, nil
}

// Progress returns the completion snapshot for a job. The server answers
// 404 until it has registered the job; that is the normal not-ready case.
func (c *Client) Progress(ctx context.Context, jobID string) (domain.ProgressSnapshot, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/progress/"+jobID, nil, nil)
	if err != nil {
		return domain.ProgressSnapshot{}, err
	}
	if status == http.StatusNotFound {
		return domain.ProgressSnapshot{}, domain.ErrNotReady
	}
	if status != http.StatusOK {
		return domain.ProgressSnapshot{}, c.serverError(status, body)
	}

	var resp progressResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ProgressSnapshot{}, fmt.Errorf("failed to parse progress: %w", err)
	}

	return mapProgress(resp), nil
}

// JobRecords returns the records produced by a parse job, or ErrNotReady
// while the parse artifact does not exist yet.
func (c *Client) JobRecords(ctx context.Context, jobID string) ([]domain.Record, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/references/"+jobID, nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrNotReady
	}
	if status != http.StatusOK {
		return nil, c.serverError(status, body)
	}

	var resp referencesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse references: %w", err)
	}

	return mapRecords(resp.References, ""), nil
}

// ListCollections returns summaries of all collections.
func (c *Client) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/pages", nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.serverError(status, body)
	}

	var dtos []pageSummaryDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse collections: %w", err)
	}

	collections := make([]domain.Collection, len(dtos))
	for i, dto := range dtos {
		collections[i] = mapCollection(dto)
	}
	return collections, nil
}

// CollectionRecords returns the current records of a known collection.
func (c *Client) CollectionRecords(ctx context.Context, collectionID string) ([]domain.Record, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/pages/"+collectionID+"/references", nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrCollectionNotFound
	}
	if status != http.StatusOK {
		return nil, c.serverError(status, body)
	}

	var resp referencesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse references: %w", err)
	}

	return mapRecords(resp.References, collectionID), nil
}

// RenameCollection sets a collection's display title.
func (c *Client) RenameCollection(ctx context.Context, collectionID, title string) (domain.Collection, error) {
	status, body, err := c.doRequest(ctx, http.MethodPatch, "/pages/"+collectionID, nil, renameRequest{Title: title})
	if err != nil {
		return domain.Collection{}, err
	}
	if status == http.StatusNotFound {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	if status != http.StatusOK {
		return domain.Collection{}, c.serverError(status, body)
	}

	var dto pageSummaryDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.Collection{}, fmt.Errorf("failed to parse collection: %w", err)
	}

	return mapCollection(dto), nil
}

// DeleteCollection removes a collection and its records.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	status, body, err := c.doRequest(ctx, http.MethodDelete, "/pages/"+collectionID, nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrCollectionNotFound
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return c.serverError(status, body)
	}
	return nil
}

// RefreshCollection re-parses a collection's source. The server accepts and
// returns immediately; completion is only observable through summary polls.
func (c *Client) RefreshCollection(ctx context.Context, collectionID string) error {
	status, body, err := c.doRequest(ctx, http.MethodPost, "/pages/"+collectionID+"/refresh", nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrCollectionNotFound
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return c.serverError(status, body)
	}
	return nil
}

// DownloadCollection fetches the archived artifacts of a collection's
// scraped records as one blob (a PDF, or a ZIP when there are several).
func (c *Client) DownloadCollection(ctx context.Context, collectionID string) ([]byte, string, error) {
	return c.download(ctx, "/pages/"+collectionID+"/download", nil)
}

// DownloadRecords fetches artifacts for an explicit id set.
func (c *Client) DownloadRecords(ctx context.Context, recordIDs []string) ([]byte, string, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(recordIDs, ","))
	return c.download(ctx, "/download", query)
}

// download performs an artifact fetch. Unlike doRequest it keeps the
// response headers so the server-suggested filename survives.
func (c *Client) download(ctx context.Context, path string, query url.Values) ([]byte, string, error) {
	reqURL := c.baseURL + apiPrefix + path
	if query != nil {
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", domain.ErrServerOffline
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", domain.ErrNoArtifacts
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", c.serverError(resp.StatusCode, body)
	}

	name := contentFilename(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = "artifacts.zip"
		if resp.Header.Get("Content-Type") == "application/pdf" {
			name = "artifact.pdf"
		}
	}
	return body, name, nil
}

// contentFilename extracts the filename from a Content-Disposition header.
func contentFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
