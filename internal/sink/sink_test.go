package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/stretchr/testify/require"
)

func TestCSVCreatesParentDirsAndHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")

	s, err := NewCSV(path)
	require.NoError(t, err)
	defer s.Close()

	snap := stats.New().Snapshot()
	require.NoError(t, s.WriteSnapshot(snap))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, stats.CSVHeader, lines[0])
}

func TestStdoutSinkDoesNotError(t *testing.T) {
	s := NewStdout()
	require.NoError(t, s.WriteSnapshot(stats.New().Snapshot()))
	require.NoError(t, s.Close())
}
