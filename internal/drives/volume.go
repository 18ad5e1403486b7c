// Package drives enumerates mounted volumes and reports free space.
//
// The installer uses this to pick (or let the user pick) a target volume, and
// the uninstaller uses it to scan every volume for installations. Volume kinds
// are best-effort: a wrong "internal" vs "external" guess only affects the
// displayed hint, never correctness.
package drives

// Volume kind hints.
const (
	KindInternal = "internal"
	KindExternal = "external"
	KindNetwork  = "network"
	KindUnknown  = "unknown"
)

// Volume describes one mounted volume.
type Volume struct {
	// Path is the volume root (e.g. "D:\\" or "/media/usb0")
	Path string

	// Kind is one of the Kind* constants
	Kind string

	// FreeBytes is the space available to the caller
	FreeBytes uint64

	// TotalBytes is the volume capacity
	TotalBytes uint64
}

// FreeGB returns free space in whole gigabytes.
func (v Volume) FreeGB() float64 {
	return float64(v.FreeBytes) / (1 << 30)
}

// TotalGB returns capacity in whole gigabytes.
func (v Volume) TotalGB() float64 {
	return float64(v.TotalBytes) / (1 << 30)
}

// Lister enumerates mounted volumes. The real implementation is platform
// specific; tests substitute a fixed list.
type Lister func() ([]Volume, error)
