package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
)

// Client talks to the file store service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchFile returns the raw bytes of a stored file along with the upstream
// status code. A transport-level failure is reported as an error with a zero
// status; a 404 arrives as status 404 with a nil error.
func (c *Client) FetchFile(ctx context.Context, id string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/file/"+id, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// UploadFile stores a payload through the file store's multipart endpoint
// and returns the id it assigned.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, content io.Reader) (uuid.UUID, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return uuid.Nil, err
	}
	if err := writer.Close(); err != nil {
		return uuid.Nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/store", body)
	if err != nil {
		return uuid.Nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("file store returned status %d: %s", resp.StatusCode, respBody)
	}

	var uploaded struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploaded.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("file store returned an empty id")
	}
	return uploaded.ID, nil
}
