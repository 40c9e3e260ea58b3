package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RenderError
		want string
	}{
		{
			name: "message only",
			err:  New(ErrorTypeTemplateNotFound, "no template on disk"),
			want: "[TEMPLATE_NOT_FOUND] no template on disk",
		},
		{
			name: "with context and cause",
			err: Wrap(ErrorTypeConversionFailed, "soffice exited", stderrors.New("exit status 1")).
				WithContext("case-7.docx"),
			want: "[CONVERSION_FAILED] soffice exited: case-7.docx: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRenderError_IsMatchesByType(t *testing.T) {
	cause := stderrors.New("deadline exceeded")
	err := fmt.Errorf("render report: %w", Wrap(ErrorTypeRenderTimeout, "pdf print timed out", cause))

	assert.True(t, Is(err, New(ErrorTypeRenderTimeout, "")))
	assert.False(t, Is(err, New(ErrorTypeConversionFailed, "")))
	assert.True(t, Is(err, cause), "cause must stay reachable through Unwrap")
	assert.True(t, IsType(err, ErrorTypeRenderTimeout))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))

	var re *RenderError
	require.True(t, As(err, &re))
	assert.Equal(t, "pdf print timed out", re.Message)
}

func TestErrorType_Severity(t *testing.T) {
	assert.Equal(t, SeverityWarning, ErrorTypeFieldWriteFailed.GetSeverity())
	for _, et := range []ErrorType{
		ErrorTypeInputNotFound,
		ErrorTypeTemplateNotFound,
		ErrorTypeRenderEngineUnavailable,
		ErrorTypeRenderTimeout,
		ErrorTypeConversionFailed,
		ErrorTypeProvisionFailed,
	} {
		assert.Equal(t, SeverityError, et.GetSeverity(), et.String())
	}
}

func TestFieldFailures(t *testing.T) {
	var ff FieldFailures
	assert.Equal(t, "No field failures", ff.Summary())

	ff.Add("firstName", stderrors.New("bad font"))
	ff.Add("single", stderrors.New("no appearance"))

	assert.Equal(t, 2, ff.Count())
	assert.Equal(t, []string{"firstName", "single"}, ff.Fields())
	assert.Equal(t, "Skipped 2 field(s)", ff.Summary())
	assert.True(t, IsType(ff.Warnings[0], ErrorTypeFieldWriteFailed))
}
