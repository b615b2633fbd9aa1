package util

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Profiler writes CPU and heap profiles for a single command run.
type Profiler struct {
	cpuProfilePath string
	memProfilePath string
	cpuProfileFile *os.File
}

// NewProfiler reads the --cpuprofile and --memprofile settings from v.
func NewProfiler(v *viper.Viper) *Profiler {
	return &Profiler{
		cpuProfilePath: v.GetString("cpuprofile"),
		memProfilePath: v.GetString("memprofile"),
	}
}

func (p *Profiler) Start() error {
	if p.cpuProfilePath == "" {
		return nil
	}

	f, err := os.Create(p.cpuProfilePath)
	if err != nil {
		return errors.Wrap(err, "could not create CPU profile")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return errors.Wrap(err, "could not start CPU profile")
	}
	p.cpuProfileFile = f
	return nil
}

// Stop finishes the CPU profile and writes the heap profile. It is safe to
// call when Start was never called.
func (p *Profiler) Stop() error {
	if p.memProfilePath != "" {
		f, err := os.Create(p.memProfilePath)
		if err != nil {
			return errors.Wrap(err, "could not create memory profile")
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errors.Wrap(err, "could not write memory profile")
		}
	}

	if p.cpuProfileFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuProfileFile.Close()
	p.cpuProfileFile = nil
	return err
}

func AddProfilingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("cpuprofile", "", "File path to write cpu profiling data")
	cmd.PersistentFlags().String("memprofile", "", "File path to write memory profiling data")
}
