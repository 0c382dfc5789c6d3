package modelmgmt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// httpTransport pulls model blobs from an HTTP(S) endpoint, a blob
// store in practice. It sends If-None-Match with the last ETag so an
// unchanged blob costs a 304 and reports RefreshCount 0.
type httpTransport struct {
	client *resty.Client
	uri    string
	tr     trace.Logger
	etag   string
	pulls  uint32
}

func newHTTPTransport(cfg *config.Config, tr trace.Logger) (Transport, error) {
	uri := cfg.Get(config.ModelBlobURI, "")
	if uri == "" {
		return nil, status.New(status.HTTPURINotProvided, "%s requires %s", config.ModelSrcHTTP, config.ModelBlobURI)
	}
	if tr == nil {
		tr = trace.Null{}
	}
	client := resty.New().SetRetryCount(config.DefaultMaxHTTPRetries)
	return &httpTransport{client: client, uri: uri, tr: tr}, nil
}

func (t *httpTransport) GetData(ctx context.Context) (*ModelData, error) {
	req := t.client.R().SetContext(ctx)
	if t.etag != "" {
		req.SetHeader("If-None-Match", t.etag)
	}
	resp, err := req.Get(t.uri)
	if err != nil {
		return nil, fmt.Errorf("fetch model blob: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusNotModified:
		return &ModelData{}, nil
	case http.StatusOK:
		t.etag = resp.Header().Get("ETag")
		t.pulls++
		t.tr.Info("model blob fetched, %d bytes, etag %q", len(resp.Body()), t.etag)
		return &ModelData{Data: resp.Body(), RefreshCount: t.pulls}, nil
	default:
		return nil, status.New(status.HTTPResponseError, "model blob fetch returned %s", resp.Status())
	}
}
