/*
Logging library for the test log analyzer.

Logging levels

0: also the same as not using V(). Progress related information of a whole run. Analyzers and
collectors should not use this level.

1: High level logs within each component. A log such as "analyzing 3 molecule scenarios"
belongs here.

2: Everything else goes here. If you do not know which level to use, use this level.

Do not log errors in functions that return an error. Instead, return the error and let the caller log it.
*/
package logger

import (
	"flag"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

var lock sync.Mutex

// InitKlogFlags initializes klog flags and adds the verbosity flag to the cobra command.
func InitKlogFlags(cmd *cobra.Command) {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)

	klogFlags.VisitAll(func(f *flag.Flag) {
		// --verbose/-v is taken by the report summary, so klog verbosity is exposed as --log-level
		if f.Name == "v" {
			pf := cmd.Flags().VarPF(f.Value, "log-level", "", "number for the log level verbosity")
			pf.DefValue = f.DefValue
		}
	})
}

// InitKlog initializes klog with a specific verbosity. This is useful when we want to
// use klog in a library and control the verbosity from the library's caller.
// Tests use this to print instrumented logs.
func InitKlog(verbosity int) {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)

	klogFlags.VisitAll(func(f *flag.Flag) {
		if f.Name == "v" {
			f.Value.Set(fmt.Sprintf("%d", verbosity))
		}
	})
}

// SetupLogger sets up klog logger based on viper configuration.
func SetupLogger(v *viper.Viper) {
	quiet := v.GetBool("debug") || v.IsSet("log-level")
	SetQuiet(!quiet)
}

// SetQuiet enables or disables klog logger.
func SetQuiet(quiet bool) {
	lock.Lock()
	defer lock.Unlock()

	if quiet {
		klog.SetLogger(logr.Discard())
	} else {
		// Restore the default logger
		klog.ClearLogger()
	}
}

// Printf logs at level 0 regardless of the quiet setting of the caller's component.
func Printf(format string, args ...interface{}) {
	klog.Infof(format, args...)
}
