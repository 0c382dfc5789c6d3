package modelmgmt

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
)

// fileTransport reads model bytes from a local file, reporting a fresh
// RefreshCount only when the file's modification time advances.
type fileTransport struct {
	path    string
	tr      trace.Logger
	lastMod time.Time
	pulls   uint32
}

func newFileTransport(cfg *config.Config, tr trace.Logger) (Transport, error) {
	path := cfg.Get(config.ModelFileName, "")
	if path == "" {
		return nil, fmt.Errorf("%s requires %s", config.ModelSrcFile, config.ModelFileName)
	}
	if tr == nil {
		tr = trace.Null{}
	}
	return &fileTransport{path: path, tr: tr}, nil
}

func (t *fileTransport) GetData(ctx context.Context) (*ModelData, error) {
	fi, err := os.Stat(t.path)
	if err != nil {
		return nil, fmt.Errorf("stat model file: %w", err)
	}
	if !fi.ModTime().After(t.lastMod) {
		return &ModelData{}, nil
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	t.lastMod = fi.ModTime()
	t.pulls++
	t.tr.Info("model file %s read, %d bytes", t.path, len(data))
	return &ModelData{Data: data, RefreshCount: t.pulls}, nil
}
