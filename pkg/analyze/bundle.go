package analyzer

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	getter "github.com/hashicorp/go-getter"
	"github.com/mholt/archiver/v3"
	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/internal/util"
	"k8s.io/klog/v2"
)

// ErrFileNotCollected is returned when a source file is not part of the bundle.
var ErrFileNotCollected = errors.New("file not collected")

// LogBundle is a read only snapshot of a log directory. Files are addressed by
// slash separated paths relative to the bundle root, e.g. "container/container-recent.log".
type LogBundle struct {
	rootDir string
	files   map[string][]byte
	cleanup func()
}

// NewBundleFromDir opens an extracted log directory.
func NewBundleFromDir(dir string) (*LogBundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat log directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}
	return &LogBundle{rootDir: dir}, nil
}

// NewBundleFromFiles builds a bundle from file contents keyed by relative path.
func NewBundleFromFiles(files map[string][]byte) *LogBundle {
	contents := make(map[string][]byte, len(files))
	for name, data := range files {
		contents[path.Clean(filepath.ToSlash(name))] = data
	}
	return &LogBundle{files: contents}
}

// OpenBundle opens a log bundle from a directory, a .tar.gz archive of one, or a
// remote URL understood by go-getter. Close must be called to remove any
// temporary files.
func OpenBundle(ctx context.Context, location string) (*LogBundle, error) {
	if util.IsURL(location) {
		return downloadBundle(ctx, location)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", location)
	}
	if info.IsDir() {
		return NewBundleFromDir(location)
	}

	return extractBundle(location)
}

func downloadBundle(ctx context.Context, bundleURL string) (*LogBundle, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get workdir")
	}

	tmpDir, err := os.MkdirTemp("", "getter")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tmp dir")
	}
	defer os.RemoveAll(tmpDir)

	dst := filepath.Join(tmpDir, "logs.tar.gz")
	client := &getter.Client{
		Ctx:           ctx,
		Src:           bundleURL,
		Dst:           dst,
		Pwd:           pwd,
		Mode:          getter.ClientModeFile,
		Decompressors: map[string]getter.Decompressor{},
	}
	if err := client.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to download log bundle")
	}

	klog.V(1).Infof("downloaded log bundle from %s", bundleURL)

	return extractBundle(dst)
}

func extractBundle(archivePath string) (*LogBundle, error) {
	bundleDir, err := os.MkdirTemp("", "testlogs")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tmp dir")
	}

	tarGz := archiver.TarGz{
		Tar: &archiver.Tar{
			ImplicitTopLevelFolder: false,
		},
	}
	if err := tarGz.Unarchive(archivePath, bundleDir); err != nil {
		os.RemoveAll(bundleDir)
		return nil, errors.Wrapf(err, "failed to unarchive %s", archivePath)
	}

	rootDir, err := bundleRoot(bundleDir)
	if err != nil {
		os.RemoveAll(bundleDir)
		return nil, err
	}

	return &LogBundle{
		rootDir: rootDir,
		cleanup: func() { os.RemoveAll(bundleDir) },
	}, nil
}

// bundleRoot descends into a single top level directory, which is how "tar czf logs.tar.gz logs/" lays out an archive.
func bundleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to read extracted bundle")
	}
	if len(entries) == 1 && entries[0].IsDir() && !isSourceDir(entries[0].Name()) {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

func isSourceDir(name string) bool {
	switch name {
	case "container", "docker", "molecule", "tailscale", "system":
		return true
	}
	return false
}

func (b *LogBundle) Close() {
	if b.cleanup != nil {
		b.cleanup()
		b.cleanup = nil
	}
}

// Location returns the path of a file as it should appear in messages.
func (b *LogBundle) Location(name string) string {
	if b.files != nil {
		return name
	}
	return filepath.Join(b.rootDir, filepath.FromSlash(name))
}

// Has reports whether a file or directory exists at name.
func (b *LogBundle) Has(name string) bool {
	if b.files != nil {
		_, ok := b.files[name]
		return ok
	}
	_, err := os.Stat(b.Location(name))
	return err == nil
}

// GetFile returns the contents of a file, or an error wrapping ErrFileNotCollected
// when it does not exist.
func (b *LogBundle) GetFile(name string) ([]byte, error) {
	if b.files != nil {
		data, ok := b.files[name]
		if !ok {
			return nil, errors.Wrap(ErrFileNotCollected, name)
		}
		return data, nil
	}

	data, err := os.ReadFile(b.Location(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrFileNotCollected, name)
		}
		return nil, err
	}
	return data, nil
}

// FindFiles returns the sorted relative paths of regular files matching a glob
// such as "molecule/*.log". "*" does not cross directory boundaries.
func (b *LogBundle) FindFiles(pattern string) ([]string, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file pattern %s", pattern)
	}

	matches := []string{}
	if b.files != nil {
		for name := range b.files {
			if g.Match(name) {
				matches = append(matches, name)
			}
		}
		sort.Strings(matches)
		return matches, nil
	}

	// only the static prefix of the pattern needs to be listed
	if err := b.findFiles(g, pattern, staticPrefix(pattern), true, &matches); err != nil {
		return nil, errors.Wrapf(err, "failed to search for %s", pattern)
	}

	sort.Strings(matches)
	return matches, nil
}

// findFiles lists relDir and appends the files matching g. The listed directory is
// followed when it is a symlink. Only a failure to list the top directory is
// returned; unreadable directories below it are skipped.
func (b *LogBundle) findFiles(g glob.Glob, pattern, relDir string, top bool, matches *[]string) error {
	entries, err := os.ReadDir(b.Location(relDir))
	if err != nil {
		if !top {
			klog.V(2).Infof("Skipping unreadable directory %s: %v", relDir, err)
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	recursive := strings.Contains(pattern, "**")
	depth := strings.Count(pattern, "/")
	for _, entry := range entries {
		rel := path.Join(relDir, entry.Name())

		if entry.IsDir() {
			if recursive || strings.Count(rel, "/") < depth {
				if err := b.findFiles(g, pattern, rel, false, matches); err != nil {
					return err
				}
			}
			continue
		}

		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(b.Location(rel))
			if err != nil {
				continue
			}
			mode = info.Mode()
		}
		if mode.IsRegular() && g.Match(rel) {
			*matches = append(*matches, rel)
		}
	}
	return nil
}

func staticPrefix(pattern string) string {
	i := strings.IndexAny(pattern, "*?[{\\")
	if i < 0 {
		return path.Dir(pattern)
	}
	if j := strings.LastIndex(pattern[:i], "/"); j >= 0 {
		return pattern[:j]
	}
	return ""
}
