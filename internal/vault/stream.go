package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrAssetUnavailable means the resolved asset's bytes could not be opened:
// the file is gone locally or the remote mirror answered non-2xx. Callers
// map it to 404.
var ErrAssetUnavailable = errors.New("asset bytes unavailable")

const defaultContentType = "application/pdf"

// Open returns a stream over the resolved asset's bytes. size is -1 when
// unknown (remote responses without Content-Length). The caller owns the
// stream and must close it.
func (v *Vault) Open(ctx context.Context, resolved *ResolvedAsset) (body io.ReadCloser, contentType string, size int64, err error) {
	if resolved.Mode == ModeLocal {
		info, err := os.Stat(resolved.Path)
		if err != nil {
			return nil, "", 0, ErrAssetUnavailable
		}
		f, err := os.Open(resolved.Path)
		if err != nil {
			return nil, "", 0, fmt.Errorf("failed to open asset file: %w", err)
		}
		return f, defaultContentType, info.Size(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.URL, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to build asset request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, "", 0, ErrAssetUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, "", 0, ErrAssetUnavailable
	}

	contentType = resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return resp.Body, contentType, resp.ContentLength, nil
}
