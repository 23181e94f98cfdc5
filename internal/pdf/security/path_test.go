package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) (*PathValidator, string) {
	t.Helper()
	dir := t.TempDir()
	v, err := NewPathValidator(dir)
	require.NoError(t, err)
	return v, v.Root()
}

func TestNewPathValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "statement.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-"), 0o600))

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{name: "valid directory", dir: dir},
		{name: "empty directory", dir: "", wantErr: true},
		{name: "non-existent directory", dir: filepath.Join(dir, "missing"), wantErr: true},
		{name: "file instead of directory", dir: file, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewPathValidator(tt.dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(v.Root()))
		})
	}
}

func TestResolveInput(t *testing.T) {
	v, root := newValidator(t)
	outside := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "fy2324"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.pdf"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fy2324", "b.pdf"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("x"), 0o600))

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "relative file", path: "a.pdf", want: filepath.Join(root, "a.pdf")},
		{name: "nested file", path: "fy2324/b.pdf", want: filepath.Join(root, "fy2324", "b.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "a.pdf"), want: filepath.Join(root, "a.pdf")},
		{name: "dot segments inside", path: "fy2324/../a.pdf", want: filepath.Join(root, "a.pdf")},
		{name: "traversal", path: "../" + filepath.Base(outside) + "/secret.pdf", wantErr: true},
		{name: "absolute outside", path: filepath.Join(outside, "secret.pdf"), wantErr: true},
		{name: "missing file", path: "nope.pdf", wantErr: true},
		{name: "empty", path: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ResolveInput(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInput_SymlinkEscape(t *testing.T) {
	v, root := newValidator(t)
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pdf")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))

	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := v.ResolveInput("link.pdf")
	assert.ErrorContains(t, err, "outside configured directory")
}

func TestResolveOutput(t *testing.T) {
	v, root := newValidator(t)
	outside := t.TempDir()

	got, err := v.ResolveOutput("summary.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "summary.xlsx"), got)

	_, err = v.ResolveOutput(filepath.Join(outside, "summary.xlsx"))
	assert.Error(t, err)

	_, err = v.ResolveOutput("missing-dir/summary.xlsx")
	assert.Error(t, err)

	link := filepath.Join(root, "linked.xlsx")
	if err := os.Symlink(filepath.Join(outside, "x.xlsx"), link); err == nil {
		_, err = v.ResolveOutput("linked.xlsx")
		assert.ErrorContains(t, err, "symlink")
	}
}
