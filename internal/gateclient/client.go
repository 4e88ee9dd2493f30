// Package gateclient is a small Go client for the gateway's REST
// surface, used by the integration tests and suitable for tooling.
package gateclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one gateway.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

// New creates a client for the gateway at baseURL. The HTTP timeout
// covers discovery calls only; row streams run on a separate client
// with no deadline, bounded by the request context instead.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		stream:  &http.Client{},
	}
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// apiError decodes an error response body, falling back to the raw
// bytes when the envelope does not parse.
func apiError(status int, body []byte) error {
	e := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, e); err != nil || e.Code == "" {
		e.Code = "unknown"
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

// GetJSON fetches one resource and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Instances lists the gateway's visible instances.
func (c *Client) Instances(ctx context.Context) ([]string, error) {
	var resp struct {
		Instances []string `json:"instances"`
	}
	if err := c.GetJSON(ctx, "/v1/instances", &resp); err != nil {
		return nil, err
	}
	return resp.Instances, nil
}

// Tables lists the tables of one instance.
func (c *Client) Tables(ctx context.Context, instance string) ([]string, error) {
	var resp struct {
		Tables []string `json:"tables"`
	}
	path := fmt.Sprintf("/v1/instances/%s/tables", url.PathEscape(instance))
	if err := c.GetJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Tables, nil
}

// Rows opens a row read. A single-row request (eid set) still comes
// back through the scanner, as one record.
func (c *Client) Rows(ctx context.Context, instance, table string, params url.Values) (*RowScanner, error) {
	path := fmt.Sprintf("%s/v1/instances/%s/tables/%s/rows",
		c.baseURL, url.PathEscape(instance), url.PathEscape(table))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	// No client timeout here: an unlimited stream may run long.
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, apiError(resp.StatusCode, body)
	}
	return newRowScanner(resp.Body), nil
}

// RowScanner iterates the CRLF-delimited records of a row stream.
type RowScanner struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	err     error
}

func newRowScanner(body io.ReadCloser) *RowScanner {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(splitCRLF)
	return &RowScanner{body: body, scanner: sc}
}

// Next decodes the next record into out. It returns false at end of
// stream; check Err afterwards.
func (s *RowScanner) Next(out any) bool {
	for s.scanner.Scan() {
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			s.err = err
			return false
		}
		return true
	}
	return false
}

// Err returns the first decode or read error, if any.
func (s *RowScanner) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.scanner.Err()
}

// Close releases the response body. Closing before exhaustion aborts
// the stream server-side.
func (s *RowScanner) Close() error {
	return s.body.Close()
}

// splitCRLF is a bufio.SplitFunc for CRLF-delimited records. A record's
// interior never contains CRLF, so the delimiter is unambiguous.
func splitCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\r\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	if atEOF {
		return 0, nil, nil
	}
	return 0, nil, nil
}
