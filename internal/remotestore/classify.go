package remotestore

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/trackline/trackline/internal/model"
)

// classify folds a resty response and transport error into the core's error
// taxonomy. Transport failures and server-side errors become Disconnected
// (recoverable, fall back to local and queue); 401/403 become
// PermissionDenied (recoverable but surfaced as a configuration problem).
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, model.ErrDisconnected, err)
	}
	if resp == nil {
		return fmt.Errorf("%s: %w: no response", op, model.ErrDisconnected)
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: %w (HTTP %d)", op, model.ErrPermissionDenied, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w (HTTP %d)", op, model.ErrNotFound, code)
	case code >= 500:
		return fmt.Errorf("%s: %w (HTTP %d)", op, model.ErrDisconnected, code)
	default:
		return fmt.Errorf("%s: HTTP %d: %s", op, code, resp.String())
	}
}
