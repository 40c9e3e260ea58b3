package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/logging"
)

// Memory keeps case payloads in memory. It backs demos and tests.
type Memory struct {
	mu     sync.RWMutex
	cases  map[string]casefile.Record
	logger *zap.Logger
}

// NewMemory creates an empty store
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{cases: make(map[string]casefile.Record), logger: logging.OrNop(logger)}
}

// Put stores a payload under its id and returns the id
func (m *Memory) Put(payload casefile.Record) (string, error) {
	c := casefile.DecodeCase(payload)
	if c.ID == "" {
		return "", fmt.Errorf("case payload has no id")
	}
	m.mu.Lock()
	m.cases[c.ID] = payload
	m.mu.Unlock()
	return c.ID, nil
}

// Get returns the case stored under id
func (m *Memory) Get(ctx context.Context, id string) (casefile.Case, error) {
	m.mu.RLock()
	payload, ok := m.cases[id]
	m.mu.RUnlock()
	if !ok {
		return casefile.Case{}, notFound(id)
	}
	return casefile.DecodeCase(payload), nil
}

// IDs returns the stored ids in sorted order
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.cases))
	for id := range m.cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadDir seeds the store from every *.json file in dir. A file holds one
// case object or an array of them; entries without an id are skipped.
func (m *Memory) LoadDir(dir string) (int, error) {
	if info, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("open seed dir: %w", err)
	} else if !info.IsDir() {
		return 0, fmt.Errorf("seed path %s is not a directory", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("list seed files: %w", err)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return loaded, fmt.Errorf("read seed file %s: %w", file, err)
		}
		payloads, err := decodeSeed(data)
		if err != nil {
			return loaded, fmt.Errorf("decode seed file %s: %w", file, err)
		}
		for _, p := range payloads {
			if _, err := m.Put(p); err != nil {
				m.logger.Warn("skipping seed entry", zap.String("file", file), zap.Error(err))
				continue
			}
			loaded++
		}
	}
	m.logger.Info("seeded case store", zap.String("dir", dir), zap.Int("cases", loaded))
	return loaded, nil
}

func decodeSeed(data []byte) ([]casefile.Record, error) {
	var list []casefile.Record
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one casefile.Record
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, err
	}
	return []casefile.Record{one}, nil
}
