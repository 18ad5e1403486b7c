//go:build !windows

package drives

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// removableMountRoots are directories whose children are treated as external
// volumes (USB sticks, external disks).
var removableMountRoots = []string{
	"/media",
	"/run/media",
	"/mnt",
	"/Volumes",
}

// List reports the root filesystem plus any mounts under the usual removable
// media directories. Volumes smaller than 1 GB are skipped.
func List() ([]Volume, error) {
	var volumes []Volume

	if v, ok := statVolume("/", KindInternal); ok {
		volumes = append(volumes, v)
	}

	for _, root := range removableMountRoots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			mount := filepath.Join(root, entry.Name())
			// /media/<user>/<volume> layout: descend one extra level.
			if root == "/media" || root == "/run/media" {
				subs, err := os.ReadDir(mount)
				if err != nil {
					continue
				}
				for _, sub := range subs {
					if !sub.IsDir() {
						continue
					}
					if v, ok := statVolume(filepath.Join(mount, sub.Name()), KindExternal); ok {
						volumes = append(volumes, v)
					}
				}
				continue
			}
			if v, ok := statVolume(mount, KindExternal); ok {
				volumes = append(volumes, v)
			}
		}
	}

	return volumes, nil
}

func statVolume(path, kind string) (Volume, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Volume{}, false
	}

	total := st.Blocks * uint64(st.Bsize)
	if total < 1<<30 {
		return Volume{}, false
	}

	return Volume{
		Path:       path,
		Kind:       kind,
		FreeBytes:  st.Bavail * uint64(st.Bsize),
		TotalBytes: total,
	}, true
}
