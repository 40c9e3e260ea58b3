package form

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/errors"
	"github.com/a3tai/casedocs/internal/logging"
)

// ProvisionResult reports what Ensure did
type ProvisionResult int

const (
	ProvisionCreated ProvisionResult = iota
	ProvisionExists
	ProvisionBaseMissing
)

func (r ProvisionResult) String() string {
	switch r {
	case ProvisionCreated:
		return "created"
	case ProvisionExists:
		return "exists"
	case ProvisionBaseMissing:
		return "base_missing"
	default:
		return "unknown"
	}
}

// Provisioner derives the fillable template from the base template by adding
// the declared schema's fields. The fillable file is the only artifact the
// renderer ever writes to disk.
type Provisioner struct {
	basePath     string
	fillablePath string
	engine       Engine
	schema       Schema
	logger       *zap.Logger
}

// NewProvisioner creates a provisioner for the given template paths
func NewProvisioner(basePath, fillablePath string, engine Engine, schema Schema, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		basePath:     basePath,
		fillablePath: fillablePath,
		engine:       engine,
		schema:       schema,
		logger:       logging.OrNop(logger),
	}
}

// FillablePath returns where the fillable template lives
func (p *Provisioner) FillablePath() string {
	return p.fillablePath
}

// Ensure creates the fillable template unless it already exists or there is
// no base template to derive it from. Concurrent callers may both write; the
// temp-file rename keeps every observed file complete and both writes are
// identical.
func (p *Provisioner) Ensure(ctx context.Context) (ProvisionResult, error) {
	if fileExists(p.fillablePath) {
		return ProvisionExists, nil
	}
	base, err := os.ReadFile(p.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Info("base template missing, skipping provisioning", zap.String("base", p.basePath))
			return ProvisionBaseMissing, nil
		}
		return 0, fmt.Errorf("read base template: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fillable, err := p.engine.AddFields(base, p.schema)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeProvisionFailed, "failed to add form fields", err).WithContext(p.basePath)
	}

	// Another caller may have finished while we were building.
	if fileExists(p.fillablePath) {
		return ProvisionExists, nil
	}

	if err := writeAtomic(p.fillablePath, fillable); err != nil {
		return 0, fmt.Errorf("write fillable template: %w", err)
	}
	p.logger.Info("provisioned fillable template",
		zap.String("path", p.fillablePath),
		zap.Int("fields", len(p.schema)))
	return ProvisionCreated, nil
}

// Load returns the template to render with: the fillable file when present,
// else the base file.
func (p *Provisioner) Load() ([]byte, error) {
	for _, path := range []string{p.fillablePath, p.basePath} {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
	}
	return nil, errors.New(errors.ErrorTypeTemplateNotFound, "no intake template available").
		WithContext(p.basePath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
