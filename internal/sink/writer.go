package sink

import (
	"encoding/json"
	"os"
	"sync"

	"proxyprobe/internal/model"
)

// JSONLWriter appends one JSON object per trial result. Safe for concurrent
// use.
type JSONLWriter struct {
	file *os.File
	mu   sync.Mutex
}

func NewJSONL(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &JSONLWriter{file: f}, nil
}

func (w *JSONLWriter) Write(r model.TrialResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.file.Write(append(data, '\n'))
	return err
}

// WriteAll writes results in order and stops at the first error.
func (w *JSONLWriter) WriteAll(results []model.TrialResult) error {
	for _, r := range results {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	return w.file.Close()
}
