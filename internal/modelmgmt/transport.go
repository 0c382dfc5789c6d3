// Package modelmgmt pulls model blobs from a remote source and feeds
// them to the policy on a fixed cadence.
package modelmgmt

import (
	"context"
	"fmt"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
)

// ModelData is one transport pull. RefreshCount is 0 when the source
// has not changed since the previous pull; consumers skip the update.
type ModelData struct {
	Data         []byte
	RefreshCount uint32
}

// Transport pulls model bytes from a data source.
type Transport interface {
	GetData(ctx context.Context) (*ModelData, error)
}

// Factory creates a transport from configuration.
type Factory func(cfg *config.Config, tr trace.Logger) (Transport, error)

var registry = map[string]Factory{
	config.ModelSrcNone: func(*config.Config, trace.Logger) (Transport, error) {
		return noModelTransport{}, nil
	},
	config.ModelSrcFile: newFileTransport,
	config.ModelSrcHTTP: newHTTPTransport,
}

// Register adds a named transport factory. Panics on duplicates;
// registration happens before Init.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("data transport %q already registered", name))
	}
	registry[name] = f
}

// Create instantiates the transport named by model.source.
func Create(cfg *config.Config, tr trace.Logger) (Transport, error) {
	name := cfg.Get(config.ModelSrc, config.ModelSrcNone)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown model source %q", name)
	}
	return f(cfg, tr)
}

// noModelTransport never yields data; the policy stays in explore-only
// mode.
type noModelTransport struct{}

func (noModelTransport) GetData(context.Context) (*ModelData, error) {
	return &ModelData{}, nil
}
