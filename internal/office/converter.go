package office

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/casedocs/internal/errors"
	"github.com/a3tai/casedocs/internal/logging"
)

// Converter turns .docx documents into PDF with an office suite running
// headless (LibreOffice's soffice by default).
type Converter struct {
	Path    string
	Timeout time.Duration
	// TempRoot is where per-request work directories are created; empty
	// means the system temp directory.
	TempRoot string
	logger   *zap.Logger
}

// NewConverter creates a converter for the executable at path
func NewConverter(path string, timeout time.Duration, logger *zap.Logger) *Converter {
	return &Converter{Path: path, Timeout: timeout, logger: logging.OrNop(logger)}
}

// Convert runs one bounded conversion in its own work directory, which is
// removed whether or not the conversion succeeds.
func (c *Converter) Convert(ctx context.Context, docx []byte) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(c.TempRoot, fmt.Sprintf("casedocs-%d-%s-", time.Now().UnixNano(), uuid.NewString()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConversionFailed, "failed to create work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("failed to remove conversion directory", zap.String("dir", dir), zap.Error(err))
		}
	}()

	input := filepath.Join(dir, "document.docx")
	if err := os.WriteFile(input, docx, 0o600); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConversionFailed, "failed to write input document", err)
	}

	// A private profile keeps concurrent conversions from contending for
	// the user's office profile lock.
	cmd := exec.CommandContext(ctx, c.Path,
		"-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(dir, "profile")),
		"--headless", "--norestore",
		"--convert-to", "pdf",
		"--outdir", dir,
		input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrorTypeConversionFailed,
				fmt.Sprintf("conversion exceeded %s", c.Timeout), ctx.Err())
		}
		return nil, errors.Wrap(errors.ErrorTypeConversionFailed, "converter exited with an error", err).
			WithContext(truncate(stderr.String(), 512))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "document.pdf"))
	if err != nil || len(pdf) == 0 {
		if err == nil {
			err = fmt.Errorf("empty output")
		}
		return nil, errors.Wrap(errors.ErrorTypeConversionFailed, "converter produced no output", err)
	}

	c.logger.Debug("converted document",
		zap.Int("input_bytes", len(docx)),
		zap.Int("output_bytes", len(pdf)),
		zap.Duration("elapsed", time.Since(start)))
	return pdf, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
