// Package remote downloads candidate icons over HTTPS.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/httpclient"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/version"
)

// DefaultInterval spaces consecutive downloads.
const DefaultInterval = 500 * time.Millisecond

// Download is a fetched, not yet decoded, image body.
type Download struct {
	Data        []byte
	ContentType string
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxBytes    int64
	readTimeout time.Duration
	userAgent   string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:      httpclient.GetDefaultClient(),
		limiter:     rate.NewLimiter(rate.Every(DefaultInterval), 2),
		maxBytes:    httpclient.MaxResponseBytes,
		readTimeout: httpclient.ReadTimeout,
		userAgent:   version.UserAgent(),
	}
}

// ValidateURL parses raw and requires the https scheme.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Scheme, "https") || u.Host == "" {
		return nil, apperrors.New(apperrors.KindSchemeRejected, "", err)
	}
	return u, nil
}

// Fetch downloads rawURL. Nothing touches the network unless the URL uses https.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Download, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return Download{}, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return Download{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Download{}, apperrors.New(apperrors.KindSchemeRejected, "", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	logger.Debug("Downloading icon", "url", u.Redacted())
	resp, err := httpclient.Do(f.client, req, f.readTimeout)
	if err != nil {
		return Download{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Download{}, apperrors.RemoteError(resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !IsImageContentType(contentType) {
		return Download{}, apperrors.Newf(apperrors.KindUnsupportedContentType, nil,
			"URL does not point to an image (Content-Type %q).", contentType)
	}
	if resp.ContentLength > f.maxBytes {
		return Download{}, tooLarge(f.maxBytes, nil)
	}

	data, err := httpclient.ReadCapped(resp.Body, f.maxBytes)
	if err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return Download{}, tooLarge(f.maxBytes, err)
		}
		return Download{}, transportError(ctx, err)
	}
	logger.Debug("Downloaded icon", "url", u.Redacted(), "bytes", len(data), "content_type", contentType)
	return Download{Data: data, ContentType: contentType}, nil
}

// IsImageContentType reports whether a Content-Type header names an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

func tooLarge(limit int64, cause error) error {
	return apperrors.Newf(apperrors.KindTooLarge, cause, "Image exceeds the %d byte limit.", limit)
}

func transportError(ctx context.Context, err error) error {
	if httpclient.IsTimeout(err) {
		return apperrors.Timeout(err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return apperrors.New(apperrors.KindRemoteError, "Failed to download image.", err)
}
