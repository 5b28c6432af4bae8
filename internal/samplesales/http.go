package samplesales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/insights/pkg/logger"
)

// Upload outcomes.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

var errUnexpectedStatus = errors.New("unexpected status")

// HTTPClient talks to the insights API as one business owner.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.client.Do(req)
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// SignupAndLogin registers the export's owner and keeps the session token.
func (c *HTTPClient) SignupAndLogin(ctx context.Context, e Export) error {
	resp, err := c.Post(ctx, "/signup", map[string]string{
		"username":      e.Owner,
		"password":      e.Password,
		"business_name": e.Business,
	})
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("signup %s: %w %d: %s", e.Owner, errUnexpectedStatus, resp.StatusCode, body)
	}

	resp, err = c.Post(ctx, "/login", map[string]string{"username": e.Owner, "password": e.Password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	body, err = readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login %s: %w %d: %s", e.Owner, errUnexpectedStatus, resp.StatusCode, body)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		return fmt.Errorf("decode login: %w", err)
	}
	c.token = login.Token
	return nil
}

// Upload sends the export as a multipart form and returns the status and body.
func (c *HTTPClient) Upload(ctx context.Context, e Export) (int, []byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", e.Name)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create form: %w", err)
	}
	if _, err := fw.Write(e.Data); err != nil {
		return 0, nil, fmt.Errorf("failed to write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", &buf)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	body, err := readResponseBody(resp)
	return resp.StatusCode, body, err
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// Outcome is the result of uploading one export.
type Outcome struct {
	Export   Export
	Status   int
	Response *UploadResponse
	Error    *ErrorResponse
	Err      error
}

// submitExports signs every owner up and uploads their export using
// config.Workers concurrent clients.
func submitExports(ctx context.Context, config *Config, exports []Export, stats *Stats) []Outcome {
	logger.Get().Info(ctx, "uploading exports",
		logger.Int("exports", len(exports)),
		logger.Int("workers", config.Workers))

	var ok, rejected, failed atomic.Int64
	outcomes := make([]Outcome, len(exports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for i, e := range exports {
		g.Go(func() error {
			o := submitSingleExport(gctx, config, e)
			outcomes[i] = o
			switch classify(o) {
			case outcomeOK:
				ok.Add(1)
			case outcomeRejected:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
			if config.Verbose {
				logger.Get().Debug(gctx, "upload finished",
					logger.String("owner", e.Owner),
					logger.String("file", e.Name),
					logger.Int("status", o.Status))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.UploadsSubmitted = len(exports)
	stats.UploadsOK = int(ok.Load())
	stats.UploadsRejected = int(rejected.Load())
	stats.UploadsFailed = int(failed.Load())

	logger.Get().Info(ctx, "upload completed",
		logger.Int("ok", stats.UploadsOK),
		logger.Int("rejected", stats.UploadsRejected),
		logger.Int("failed", stats.UploadsFailed))
	return outcomes
}

func submitSingleExport(ctx context.Context, config *Config, e Export) Outcome {
	o := Outcome{Export: e}
	client := newHTTPClient(config.BaseURL, config.Timeout)
	if err := client.SignupAndLogin(ctx, e); err != nil {
		o.Err = err
		return o
	}

	status, body, err := client.Upload(ctx, e)
	o.Status = status
	if err != nil {
		o.Err = err
		return o
	}

	if status == http.StatusOK {
		var res UploadResponse
		if err := json.Unmarshal(body, &res); err != nil {
			o.Err = fmt.Errorf("decode upload: %w", err)
			return o
		}
		o.Response = &res
		return o
	}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		o.Error = &er
	}
	return o
}

func classify(o Outcome) string {
	switch {
	case o.Err != nil:
		return outcomeFailed
	case o.Response != nil:
		return outcomeOK
	case o.Status == http.StatusUnprocessableEntity:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
