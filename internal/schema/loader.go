package schema

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"

	"github.com/thoreinstein/docvalidate/internal/errors"
)

// fsLoader serves file:// URLs from an afero filesystem.
type fsLoader struct {
	fs afero.Fs
}

func (l fsLoader) Load(rawURL string) (any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", rawURL)
	}
	path := filepath.FromSlash(u.Path)

	f, err := l.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	doc, err := jsonschema.UnmarshalJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return doc, nil
}

// httpLoader fetches http(s) $ref targets, one bounded GET per document.
// The engine's loader interface carries no context, so the timeout is the
// only limit.
type httpLoader struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func (l httpLoader) Load(rawURL string) (any, error) {
	if l.logger != nil {
		l.logger.Debug("fetching remote $ref", "url", rawURL)
	}
	return fetchJSON(context.Background(), l.client, rawURL, l.timeout)
}

// remoteLoadFailure reports whether err comes from failing to download an
// http(s) resource, which is an environment problem rather than a broken
// schema.
func remoteLoadFailure(err error) bool {
	var loadErr *jsonschema.LoadURLError
	if !errors.As(err, &loadErr) {
		return false
	}
	u, perr := url.Parse(loadErr.URL)
	return perr == nil && (u.Scheme == "http" || u.Scheme == "https")
}
