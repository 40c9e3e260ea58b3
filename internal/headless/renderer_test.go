package headless

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/casedocs/internal/errors"
)

func TestPrintRequest(t *testing.T) {
	tests := []struct {
		name          string
		opts          PageOptions
		width, height float64
	}{
		{"letter", PageOptions{Format: "letter"}, 8.5, 11},
		{"a4 upper case", PageOptions{Format: "A4"}, 8.27, 11.69},
		{"legal", PageOptions{Format: "legal"}, 8.5, 14},
		{"unknown falls back to letter", PageOptions{Format: "tabloid"}, 8.5, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := PrintRequest(tt.opts)
			require.NotNil(t, req.PaperWidth)
			require.NotNil(t, req.PaperHeight)
			assert.Equal(t, tt.width, *req.PaperWidth)
			assert.Equal(t, tt.height, *req.PaperHeight)
			assert.True(t, req.PrintBackground)
			assert.False(t, req.DisplayHeaderFooter)
		})
	}
}

func TestPrintRequest_OrientationMarginsChrome(t *testing.T) {
	opts := DefaultPageOptions()
	opts.Landscape = true
	opts.Margins.Left = 1
	opts.ShowChrome = true
	opts.Title = "Reyes & <Cruz>"

	req := PrintRequest(opts)
	assert.True(t, req.Landscape)
	assert.Equal(t, 1.0, *req.MarginLeft)
	assert.Equal(t, 0.5, *req.MarginTop)
	assert.True(t, req.DisplayHeaderFooter)
	assert.Contains(t, req.HeaderTemplate, "Reyes &amp; &lt;Cruz&gt;")
	assert.Contains(t, req.FooterTemplate, `class="pageNumber"`)
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("letter"))
	assert.True(t, ValidFormat("A4"))
	assert.False(t, ValidFormat("b5"))
}

func TestClassify(t *testing.T) {
	r := NewRenderer("", false, 5*time.Second, nil)

	err := r.classify(context.Background(), errors.ErrorTypeRenderEngineUnavailable, "launch", fmt.Errorf("no sandbox"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeRenderEngineUnavailable))

	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	err = r.classify(expired, errors.ErrorTypeRenderEngineUnavailable, "print", fmt.Errorf("stream closed"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeRenderTimeout))

	err = r.classify(context.Background(), errors.ErrorTypeRenderEngineUnavailable, "print",
		fmt.Errorf("wait: %w", context.DeadlineExceeded))
	assert.True(t, errors.IsType(err, errors.ErrorTypeRenderTimeout))
}

func TestRender_MissingBrowser(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "no-such-chromium")
	r := NewRenderer(bin, true, 10*time.Second, nil)

	_, err := r.Render(context.Background(), []byte("<p>hi</p>"), DefaultPageOptions())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRenderEngineUnavailable))
}
