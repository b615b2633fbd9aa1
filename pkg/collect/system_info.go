package collect

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const defaultDiskPath = "/"

type systemStatsFunc func(ctx context.Context, path string) (*mem.VirtualMemoryStat, *disk.UsageStat, error)

// CollectSystemInfo reports memory and disk usage in the line format read by
// the system info analyzer.
type CollectSystemInfo struct {
	source LogSource
	stats  systemStatsFunc
}

func (c *CollectSystemInfo) Title() string {
	return c.source.title("System Info")
}

func (c *CollectSystemInfo) IsExcluded() bool {
	return c.source.Exclude
}

func (c *CollectSystemInfo) Collect(ctx context.Context) (*CollectorResult, error) {
	path := c.source.Path
	if path == "" {
		path = defaultDiskPath
	}

	vm, du, err := c.stats(ctx, path)
	if err != nil {
		return nil, errors.Errorf("Error collecting system info: %v", err)
	}

	return &CollectorResult{Content: formatSystemInfo(vm, du)}, nil
}

func hostStats(ctx context.Context, path string) (*mem.VirtualMemoryStat, *disk.UsageStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read virtual memory")
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read disk usage for %s", path)
	}
	return vm, du, nil
}

func formatSystemInfo(vm *mem.VirtualMemoryStat, du *disk.UsageStat) string {
	return fmt.Sprintf("Memory usage: %.1f%% (%s used of %s)\nDisk usage: %.1f%% of %s (%s used of %s)\n",
		vm.UsedPercent, formatBytes(vm.Used), formatBytes(vm.Total),
		du.UsedPercent, du.Path, formatBytes(du.Used), formatBytes(du.Total))
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
