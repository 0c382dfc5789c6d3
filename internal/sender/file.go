package sender

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

// fileSender appends framed batches to a local file. Batches stay
// parseable because each carries its own length-bearing preamble.
type fileSender struct {
	path string
	tr   trace.Logger

	mu   sync.Mutex
	file *os.File
}

func newFileSender(cfg *config.Config, _ status.ErrorFn, tr trace.Logger) (Sender, error) {
	path := cfg.Get(config.FileName, "")
	if path == "" {
		return nil, fmt.Errorf("%s sender requires %s.%s", config.SenderFile, cfg.Section(), config.FileName)
	}
	if tr == nil {
		tr = trace.Null{}
	}
	return &fileSender{path: path, tr: tr}, nil
}

func (s *fileSender) Init(cfg *config.Config) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event file: %w", err)
	}
	s.file = f
	return nil
}

func (s *fileSender) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("sender is closed")
	}
	if _, err := s.file.Write(payload); err != nil {
		return fmt.Errorf("append event batch: %w", err)
	}
	return nil
}

func (s *fileSender) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
