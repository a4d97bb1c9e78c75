package banana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API defines the REST surface squadboard consumes. It is implemented by
// *Client and can be faked in tests.
type API interface {
	ListJobs(ctx context.Context, query JobQuery) ([]JobSummary, error)
	FetchJob(ctx context.Context, jobID string) (*JobDetail, error)
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Refine(ctx context.Context, req RefineRequest) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// ErrNotFound is returned when the server has no record of a job.
var ErrNotFound = errors.New("job not found")

// APIError is a non-success HTTP response. Message carries the server's
// error text when it sent one.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// ServerMessage extracts the server-provided message from err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Client talks to the pipeline server's HTTP API.
type Client struct {
	baseURL       *url.URL
	outputsPrefix string
	http          *http.Client
	userAgent     string
}

const (
	defaultServer        = "127.0.0.1:8000"
	defaultOutputsPrefix = "/outputs/"
	defaultUserAgent     = "squadboard/0.1"
	requestTimeout       = 10 * time.Second
	uploadTimeout        = 60 * time.Second
	streamPath           = "/ws"
)

// NewClient builds a Client for the server host:port or URL. An empty
// outputsPrefix uses /outputs/.
func NewClient(server, outputsPrefix string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:       base,
		outputsPrefix: normalizePrefix(outputsPrefix),
		http:          &http.Client{},
		userAgent:     defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// StreamURL returns the websocket URL of the push event stream.
func (c *Client) StreamURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = streamPath
	return u.String()
}

// ArtifactURL resolves a relative artifact path against the outputs prefix.
// Absolute URLs are returned unchanged.
func (c *Client) ArtifactURL(rel string) string {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return ""
	}
	if strings.Contains(rel, "://") {
		return rel
	}
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimPrefix(rel, strings.Trim(c.outputsPrefix, "/")+"/")
	ref := &url.URL{Path: path.Join(c.outputsPrefix, rel)}
	return c.baseURL.ResolveReference(ref).String()
}

// JobQuery configures /api/jobs requests.
type JobQuery struct {
	Search string
	Sort   string
}

// ListJobs retrieves the job catalog filtered and ordered by the server.
func (c *Client) ListJobs(ctx context.Context, query JobQuery) ([]JobSummary, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	if sort := strings.TrimSpace(query.Sort); sort != "" {
		values.Set("sort", sort)
	}
	rel := &url.URL{Path: "/api/jobs", RawQuery: values.Encode()}
	var payload []JobSummary
	if err := c.doJSON(ctx, http.MethodGet, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchJob retrieves the detail document of one job.
func (c *Client) FetchJob(ctx context.Context, jobID string) (*JobDetail, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id required")
	}
	rel := &url.URL{Path: "/api/jobs/" + url.PathEscape(jobID)}
	var payload JobDetail
	if err := c.doJSON(ctx, http.MethodGet, rel, &payload); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", jobID, ErrNotFound)
		}
		return nil, err
	}
	return &payload, nil
}

// Attachment is a staged reference image.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// GenerateRequest is the multipart body of POST /api/generate.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
	Resolution  string
	Files       []Attachment
}

// Generate submits a new job and returns its id.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	body, contentType, err := encodeMultipart(func(w *multipart.Writer) error {
		fields := [][2]string{
			{"prompt", req.Prompt},
			{"aspect_ratio", req.AspectRatio},
			{"resolution", req.Resolution},
		}
		for _, f := range fields {
			if err := w.WriteField(f[0], f[1]); err != nil {
				return err
			}
		}
		for _, file := range req.Files {
			if err := writeFilePart(w, "files", file); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	var payload GenerateResponse
	rel := &url.URL{Path: "/api/generate"}
	if err := c.doMultipart(ctx, rel, body, contentType, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.JobID) == "" {
		return "", fmt.Errorf("api %s returned no job_id", rel.Path)
	}
	return payload.JobID, nil
}

// RefineRequest is the multipart body of POST /api/refine.
type RefineRequest struct {
	JobID       string
	Variant     string
	Instruction string
}

// Refine asks the server to refine one variant of a job.
func (c *Client) Refine(ctx context.Context, req RefineRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body, contentType, err := encodeMultipart(func(w *multipart.Writer) error {
		if err := w.WriteField("job_id", req.JobID); err != nil {
			return err
		}
		if err := w.WriteField("variant", req.Variant); err != nil {
			return err
		}
		return w.WriteField("instruction", req.Instruction)
	})
	if err != nil {
		return fmt.Errorf("encode refine request: %w", err)
	}

	var payload RefineResponse
	rel := &url.URL{Path: "/api/refine"}
	if err := c.doMultipart(ctx, rel, body, contentType, &payload); err != nil {
		return err
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return &APIError{Path: rel.Path, Status: http.StatusOK, Message: msg}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method string, rel *url.URL, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, rel, nil)
	if err != nil {
		return err
	}
	return c.send(req, rel, dest)
}

func (c *Client) doMultipart(ctx context.Context, rel *url.URL, body *bytes.Buffer, contentType string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, rel, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(req, rel, dest)
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body io.Reader) (*http.Request, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func (c *Client) send(req *http.Request, rel *url.URL, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Path: rel.Path, Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var body errorBody
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Message = body.message()
		}
		return apiErr
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encodeMultipart(fill func(w *multipart.Writer) error) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, field string, file Attachment) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, path.Base(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return defaultOutputsPrefix
	}
	return "/" + prefix + "/"
}
