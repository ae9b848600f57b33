package manager

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"sessiond/internal/common/fsutil"
)

// fetchBinary retrieves the runtime binary at url. http(s) URLs are fetched
// once with client; anything else is read from the local filesystem
// (a file:// prefix is accepted). Non-2xx responses are errors.
func fetchBinary(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		p, err := fsutil.ExpandHome(strings.TrimPrefix(url, "file://"))
		if err != nil {
			return nil, err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read runtime binary: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch runtime binary: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch runtime binary %s: unexpected status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read runtime binary body: %w", err)
	}
	return b, nil
}
