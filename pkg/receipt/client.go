package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/internal/utils"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 60 * time.Second
	maxErrorBodySize = 4 << 10
)

// Parser extracts structured data from a receipt file.
type Parser interface {
	ProcessReceipt(ctx context.Context, file File) (*domain.ReceiptData, error)
}

// Client posts receipt files to the parsing endpoint. It never retries;
// outbound calls are throttled by a token bucket.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(endpoint string, timeout time.Duration, ratePerSecond float64) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func NewClientFromConfig() *Client {
	return NewClient(
		utils.GetConfig("RECEIPT_PARSER_URL"),
		time.Duration(utils.GetConfigInt("RECEIPT_PARSER_TIMEOUT_SECONDS", 60))*time.Second,
		utils.GetConfigFloat("RECEIPT_RATE_PER_SECOND", 2),
	)
}

// MimeType maps a file name to the content type sent to the parser.
func MimeType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func (c *Client) ProcessReceipt(ctx context.Context, file File) (*domain.ReceiptData, error) {
	body, contentType, err := buildForm(ctx, file)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &domain.HTTPError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	var data domain.ReceiptData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	return &data, nil
}

// buildForm reads the file into a multipart body with a single "file" part.
// The file is closed before returning on every path.
func buildForm(ctx context.Context, file File) (io.Reader, string, error) {
	src, err := file.Open(ctx)
	if err != nil {
		return nil, "", &domain.FileAccessError{Name: file.Name(), Err: err}
	}
	defer src.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name())))
	h.Set("Content-Type", MimeType(file.Name()))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}

	if _, err := io.Copy(part, src); err != nil {
		return nil, "", &domain.FileAccessError{Name: file.Name(), Err: err}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
