package facade

import (
	"github.com/standardbeagle/fff/internal/vcsstatus"
	"github.com/standardbeagle/fff/internal/version"
)

// HealthReport is spec §4.8's health_check payload.
type HealthReport struct {
	Healthy             bool
	Version             string
	VCSLibraryAvailable bool
	HasRepository       bool
	IndexGeneration     uint64
	ScanActive          bool
	ScanError           string
}

// HealthCheck reports package-level health without requiring a live
// Handle — spec §4.8: "create without a handle is supported for
// health_check (reports only version + VCS library availability)". testPath,
// when non-empty, is probed for an enclosing VCS repository.
func HealthCheck(testPath string) HealthReport {
	report := HealthReport{Healthy: true, Version: version.Version, VCSLibraryAvailable: true}
	if testPath == "" {
		return report
	}
	cache, err := vcsstatus.Open(testPath, nil)
	if err != nil {
		report.VCSLibraryAvailable = false
		return report
	}
	report.HasRepository = cache.HasRepository()
	return report
}

// HealthCheck reports this Handle's live state in addition to the
// package-level fields.
func (h *Handle) HealthCheck(testPath string) HealthReport {
	report := HealthCheck(testPath)
	if h.closed.Load() {
		report.Healthy = false
		return report
	}
	_, scanning, scanErr := h.index.ScanProgress()
	report.IndexGeneration = h.index.Generation()
	report.ScanActive = scanning
	report.ScanError = scanErr
	report.HasRepository = h.vcs.Load().HasRepository()
	return report
}
