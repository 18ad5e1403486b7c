package installers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mhollands/envstack/internal/drives"
)

// connectivityProbeURL is fetched with a HEAD request to confirm the
// machine can reach the download hosts.
const connectivityProbeURL = "https://repo.anaconda.com"

// Prerequisites verifies the target volume and network before anything is
// written.
type Prerequisites struct {
	// Volume is the chosen target volume
	Volume drives.Volume

	// RequiredGB is the free space needed for a full install
	RequiredGB int

	// SkipInternet disables the connectivity probe (offline installs from a
	// pre-populated download cache)
	SkipInternet bool

	// Probe overrides the connectivity check in tests
	Probe func(ctx context.Context) error

	Reporter Reporter
}

func (p *Prerequisites) Step() int    { return 1 }
func (p *Prerequisites) Name() string { return "prerequisites" }

func (p *Prerequisites) Install(ctx context.Context) error {
	rep := reporterOrNop(p.Reporter)

	if p.Volume.Path == "" {
		return fmt.Errorf("no target volume selected")
	}
	rep.CompleteComponent(1, "system_check")

	if free := p.Volume.FreeGB(); free < float64(p.RequiredGB) {
		return fmt.Errorf("insufficient space on %s: %.1f GB free, %d GB required", p.Volume.Path, free, p.RequiredGB)
	}
	rep.CompleteComponent(1, "disk_space")

	if !p.SkipInternet {
		probe := p.Probe
		if probe == nil {
			probe = defaultProbe
		}
		if err := probe(ctx); err != nil {
			return fmt.Errorf("internet connectivity check failed: %w", err)
		}
	}
	rep.CompleteComponent(1, "internet")

	return nil
}

func defaultProbe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, connectivityProbeURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
