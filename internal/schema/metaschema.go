package schema

import (
	"context"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/thoreinstein/docvalidate/internal/errors"
)

// DefaultFetchTimeout bounds the remote metaschema download.
const DefaultFetchTimeout = 10 * time.Second

// fetchedLocation is where a downloaded metaschema is registered. It sits
// next to the canonical document so the relative "meta/*" vocabulary refs
// resolve to the engine's embedded copies.
const fetchedLocation = "https://json-schema.org/draft/2020-12/fetched-schema.json"

// MetaschemaSource supplies the compiled Draft 2020-12 metaschema.
type MetaschemaSource interface {
	Metaschema(ctx context.Context) (*jsonschema.Schema, error)
}

// Bundled serves the metaschema embedded in the JSON Schema engine.
type Bundled struct{}

// Metaschema compiles the embedded Draft 2020-12 metaschema.
func (Bundled) Metaschema(_ context.Context) (*jsonschema.Schema, error) {
	sch, err := jsonschema.NewCompiler().Compile(Draft202012URL)
	if err != nil {
		return nil, errors.Wrap(err, "compiling bundled metaschema")
	}
	return sch, nil
}

// Remote downloads the metaschema over HTTP on every call.
// There are no retries; a failed download fails the check.
type Remote struct {
	// URL is fetched with a GET request. Defaults to Draft202012URL.
	URL string
	// Timeout bounds the whole download. Defaults to DefaultFetchTimeout.
	Timeout time.Duration
	// Client performs the request. Defaults to http.DefaultClient.
	Client *http.Client
}

// Metaschema fetches, parses and compiles the remote metaschema.
func (r Remote) Metaschema(ctx context.Context) (*jsonschema.Schema, error) {
	doc, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.Newf("metaschema at %s is not a JSON object", r.url())
	}
	// The canonical $id would collide with the engine's embedded copy.
	delete(obj, "$id")

	c := jsonschema.NewCompiler()
	if err := c.AddResource(fetchedLocation, obj); err != nil {
		return nil, errors.Wrap(err, "registering fetched metaschema")
	}
	sch, err := c.Compile(fetchedLocation)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling metaschema fetched from %s", r.url())
	}
	return sch, nil
}

func (r Remote) fetch(ctx context.Context) (any, error) {
	doc, err := fetchJSON(ctx, r.Client, r.url(), r.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "fetching metaschema")
	}
	return doc, nil
}

// fetchJSON GETs url and decodes the body as JSON, giving up after timeout.
// A nil client means http.DefaultClient.
func fetchJSON(ctx context.Context, client *http.Client, url string, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", url)
	}
	req.Header.Set("Accept", "application/schema+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetching %s: unexpected status %s", url, resp.Status)
	}

	doc, err := jsonschema.UnmarshalJSON(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", url)
	}
	return doc, nil
}

func (r Remote) url() string {
	if r.URL == "" {
		return Draft202012URL
	}
	return r.URL
}
