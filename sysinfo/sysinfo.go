// Package sysinfo reads host facts shown on the homepage and in /health.
package sysinfo

import (
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/homepage/errors"
)

// Host summarizes the machine serving the homepage
type Host struct {
	BootTime      time.Time `json:"boot_time"`
	Uptime        string    `json:"uptime"`
	MemoryUsedGB  float64   `json:"memory_used_gb"`
	MemoryTotalGB float64   `json:"memory_total_gb"`
	MemoryPercent float64   `json:"memory_percent"`
}

// BootTime returns the instant the host booted
func BootTime() (time.Time, error) {
	secs, err := host.BootTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "failed to read boot time")
	}
	return time.Unix(int64(secs), 0), nil
}

// getMemoryStats returns current memory usage in bytes
func getMemoryStats() (total uint64, available uint64, err error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get memory stats")
	}
	return v.Total, v.Available, nil
}

// Snapshot collects boot time and memory usage. Fields that cannot be read
// stay zero; the first error is returned alongside the partial result.
func Snapshot(now time.Time) (Host, error) {
	var h Host
	var firstErr error

	boot, err := BootTime()
	if err != nil {
		firstErr = err
	} else {
		h.BootTime = boot
		h.Uptime = now.Sub(boot).Truncate(time.Second).String()
	}

	total, available, err := getMemoryStats()
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else if total > 0 {
		h.MemoryTotalGB = float64(total) / 1024 / 1024 / 1024
		h.MemoryUsedGB = float64(total-available) / 1024 / 1024 / 1024
		h.MemoryPercent = (h.MemoryUsedGB / h.MemoryTotalGB) * 100
	}

	return h, firstErr
}
