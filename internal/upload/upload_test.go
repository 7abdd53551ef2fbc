package upload

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credguard/pkg/domain-errors"
)

// namedSized is a test double exposing only name and size plus a stream.
type namedSized struct {
	name string
	size int64
}

func (n namedSized) Name() string                 { return n.name }
func (n namedSized) Size() int64                  { return n.size }
func (n namedSized) Open() (io.ReadCloser, error) { return io.NopCloser(nil), nil }

// onlyName lacks Size and Open and must be rejected.
type onlyName struct{}

func (onlyName) Name() string { return "x" }

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate any
		wantCode  dErrors.Code
	}{
		{name: "nil candidate", candidate: nil, wantCode: dErrors.CodeMissingInput},
		{name: "typed nil bytes", candidate: (*Bytes)(nil), wantCode: dErrors.CodeMissingInput},
		{name: "typed nil os file", candidate: (*os.File)(nil), wantCode: dErrors.CodeMissingInput},
		{name: "string", candidate: "passport.pdf", wantCode: dErrors.CodeInvalidInput},
		{name: "map with name and size", candidate: map[string]any{"name": "a", "size": 1}, wantCode: dErrors.CodeInvalidInput},
		{name: "partial capability", candidate: onlyName{}, wantCode: dErrors.CodeInvalidInput},
		{name: "capability double", candidate: namedSized{name: "a.pdf", size: 10}},
		{name: "zero size capability double", candidate: namedSized{name: "", size: 0}},
		{name: "bytes", candidate: FromBytes("a.json", []byte("{}"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Validate(tt.candidate)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, tt.wantCode), "got %v", err)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestValidateOSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passport.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o600))

	handle, err := os.Open(path)
	require.NoError(t, err)
	defer handle.Close()

	f, err := Validate(handle)
	require.NoError(t, err)
	assert.Equal(t, "passport.pdf", f.Name())
	assert.Equal(t, int64(8), f.Size())

	for range 2 {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "%PDF-1.7", string(data))
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "license.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	p, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "license.png", p.Name())
	assert.Equal(t, int64(3), p.Size())

	_, err = FromPath(dir)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = FromPath(filepath.Join(dir, "missing"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidateIssuance(t *testing.T) {
	file := FromBytes("passport.pdf", []byte("data"))

	t.Run("blank wallet blocks before file check", func(t *testing.T) {
		_, err := ValidateIssuance(nil, "   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingWalletID))
	})

	t.Run("missing file with wallet", func(t *testing.T) {
		_, err := ValidateIssuance(nil, "did:example:123")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingInput))
	})

	t.Run("accepts file and wallet", func(t *testing.T) {
		f, err := ValidateIssuance(file, "did:example:123")
		require.NoError(t, err)
		assert.Equal(t, "passport.pdf", f.Name())
	})
}
