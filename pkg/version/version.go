package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// These are set at build time with -ldflags "-X".
var (
	version   string
	gitSHA    string
	buildTime string
)

var (
	build     Build
	buildOnce sync.Once
)

// Build holds details about this build of the binary
type Build struct {
	Version      string     `json:"version,omitempty"`
	GitSHA       string     `json:"git,omitempty"`
	BuildTime    time.Time  `json:"buildTime,omitempty"`
	TimeFallback string     `json:"buildTimeFallback,omitempty"`
	GoInfo       GoInfo     `json:"go,omitempty"`
	RunAt        *time.Time `json:"runAt,omitempty"`
}

type GoInfo struct {
	Version  string `json:"version,omitempty"`
	Compiler string `json:"compiler,omitempty"`
	OS       string `json:"os,omitempty"`
	Arch     string `json:"arch,omitempty"`
}

// initBuild sets up the version info from build args or imported modules in go.mod
func initBuild() {
	moduleName := "github.com/replicatedhq/testlog-analyzer"

	v := version
	if v == "" {
		// Its OK if we cannot read the buildinfo, we just won't have a version set
		bi, ok := debug.ReadBuildInfo()
		if ok {
			if bi.Main.Path == moduleName {
				v = bi.Main.Version
			}
			for _, dep := range bi.Deps {
				if dep.Path == moduleName {
					v = dep.Version
					break
				}
			}
		}
	}

	build.Version = v
	if len(gitSHA) >= 7 {
		build.GitSHA = gitSHA[:7]
	}

	var err error
	build.BuildTime, err = time.Parse(time.RFC3339, buildTime)
	if err != nil {
		build.TimeFallback = buildTime
	}

	build.GoInfo = getGoInfo()
	runAt := time.Now()
	build.RunAt = &runAt
}

// GetBuild gets the build
func GetBuild() Build {
	buildOnce.Do(initBuild)
	return build
}

// Version gets the version
func Version() string {
	return GetBuild().Version
}

// GitSHA gets the gitsha
func GitSHA() string {
	return GetBuild().GitSHA
}

func getGoInfo() GoInfo {
	return GoInfo{
		Version:  runtime.Version(),
		Compiler: runtime.Compiler,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

func GetUserAgent() string {
	return fmt.Sprintf("Replicated_TestLogAnalyzer/%s", Version())
}

// GetVersionFile renders the build information as a YAML document.
func GetVersionFile() (string, error) {
	b, err := yaml.Marshal(GetBuild())
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal version data")
	}

	return string(b), nil
}
