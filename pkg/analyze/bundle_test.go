package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archiver/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestLogBundle_Dir(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	writeLogTree(t, dir, map[string]string{
		"molecule/upgrade.log":           "b",
		"molecule/default.log":           "a",
		"molecule/notes.txt":             "skip",
		"molecule/nested/inner.log":      "skip",
		"container/container-recent.log": "c",
	})

	bundle, err := NewBundleFromDir(dir)
	req.NoError(err)
	defer bundle.Close()

	data, err := bundle.GetFile("container/container-recent.log")
	req.NoError(err)
	req.Equal("c", string(data))

	_, err = bundle.GetFile("docker/docker-compose.log")
	req.True(errors.Is(err, ErrFileNotCollected))
	req.False(bundle.Has("docker/docker-compose.log"))

	molecule, err := bundle.FindFiles(MoleculeLogGlob)
	req.NoError(err)
	req.Equal([]string{"molecule/default.log", "molecule/upgrade.log"}, molecule)

	none, err := bundle.FindFiles("tailscale/*.log")
	req.NoError(err)
	req.Empty(none)
}

func TestLogBundle_FindFilesSymlinkedDir(t *testing.T) {
	req := require.New(t)

	scenarios := t.TempDir()
	writeLogTree(t, scenarios, map[string]string{
		"default.log": "a",
		"upgrade.log": "b",
	})

	dir := t.TempDir()
	req.NoError(os.Symlink(scenarios, filepath.Join(dir, "molecule")))
	req.NoError(os.Symlink(filepath.Join(scenarios, "default.log"), filepath.Join(scenarios, "linked.log")))

	bundle, err := NewBundleFromDir(dir)
	req.NoError(err)

	molecule, err := bundle.FindFiles(MoleculeLogGlob)
	req.NoError(err)
	req.Equal([]string{"molecule/default.log", "molecule/linked.log", "molecule/upgrade.log"}, molecule)
}

func TestLogBundle_FindFilesUnreadableSubdir(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	writeLogTree(t, dir, map[string]string{
		"molecule/default.log":     "a",
		"molecule/private/x.log":   "skip",
		"molecule/deep/more/y.log": "skip",
	})
	private := filepath.Join(dir, "molecule", "private")
	req.NoError(os.Chmod(private, 0))
	t.Cleanup(func() { os.Chmod(private, 0755) })

	bundle, err := NewBundleFromDir(dir)
	req.NoError(err)

	molecule, err := bundle.FindFiles(MoleculeLogGlob)
	req.NoError(err)
	req.Equal([]string{"molecule/default.log"}, molecule)

	nested, err := bundle.FindFiles("molecule/**.log")
	req.NoError(err)
	req.Contains(nested, "molecule/deep/more/y.log")
}

func TestAnalyzeLogs_MoleculeNotListable(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	writeLogTree(t, dir, map[string]string{
		// a file where the scenario directory should be
		"molecule":                       "not a directory",
		"container/container-recent.log": "2024-01-15 10:00:00 boot complete\n",
	})

	bundle, err := NewBundleFromDir(dir)
	req.NoError(err)

	_, err = bundle.FindFiles(MoleculeLogGlob)
	req.Error(err)

	result, err := AnalyzeLogs(context.Background(), bundle, AnalyzeOptions{Now: testNow})
	req.NoError(err)

	req.Len(result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, "molecule", issue.Category)
	assert.Equal(t, SeverityError, issue.Severity)
	assert.Contains(t, issue.Message, "Failed to list molecule logs")

	lines, ok := result.Metrics.Lookup("container_lines")
	req.True(ok)
	assert.Equal(t, int64(2), lines.IntVal)
	_, ok = result.Metrics.Lookup("total_issues")
	req.True(ok)
}

func TestLogBundle_Files(t *testing.T) {
	req := require.New(t)

	bundle := NewBundleFromFiles(map[string][]byte{
		"molecule/b-scenario.log":   []byte("b"),
		"molecule/a.log":            []byte("a"),
		"docker/docker-compose.log": []byte("d"),
	})

	req.True(bundle.Has("molecule/a.log"))
	req.Equal("molecule/a.log", bundle.Location("molecule/a.log"))

	molecule, err := bundle.FindFiles(MoleculeLogGlob)
	req.NoError(err)
	req.Equal([]string{"molecule/a.log", "molecule/b-scenario.log"}, molecule)

	_, err = bundle.GetFile("container/container-recent.log")
	req.True(errors.Is(err, ErrFileNotCollected))
}

func TestOpenBundle_Archive(t *testing.T) {
	req := require.New(t)

	src := filepath.Join(t.TempDir(), "test-logs")
	writeLogTree(t, src, map[string]string{
		"docker/docker-compose.log": "Creating macos-test-local ... done\n",
	})

	archive := filepath.Join(t.TempDir(), "test-logs.tar.gz")
	req.NoError(archiver.Archive([]string{src}, archive))

	bundle, err := OpenBundle(context.Background(), archive)
	req.NoError(err)

	data, err := bundle.GetFile("docker/docker-compose.log")
	req.NoError(err)
	req.Equal("Creating macos-test-local ... done\n", string(data))

	root := bundle.rootDir
	bundle.Close()
	_, err = os.Stat(root)
	req.True(os.IsNotExist(err))
}

func TestOpenBundle_Missing(t *testing.T) {
	_, err := OpenBundle(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMoleculeCategory(t *testing.T) {
	assert.Equal(t, "molecule_default", moleculeCategory("molecule/default.log"))
	assert.Equal(t, "molecule_macos_upgrade_path", moleculeCategory("molecule/macos-upgrade-path.log"))
	assert.Equal(t, "molecule_run.1", moleculeCategory("molecule/run.1.log"))
}
