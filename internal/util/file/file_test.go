package file_util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.cpp")
	require.NoError(t, WriteFileSync(path, []byte("int main(){}"), 0600))

	content, err := ReadFileToString(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "int main(){}", content)
}

func TestReadFileToStringLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.py")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0600))

	_, err := ReadFileToString(path, 64)
	assert.Error(t, err)

	content, err := ReadFileToString(path, 128)
	require.NoError(t, err)
	assert.Len(t, content, 128)
}
