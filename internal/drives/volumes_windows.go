//go:build windows

package drives

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// List enumerates all logical drives with their type and space figures.
// Volumes smaller than 1 GB (card readers, empty slots) are skipped.
func List() ([]Volume, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate logical drives: %w", err)
	}

	var volumes []Volume
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		root := string(rune('A'+i)) + `:\`

		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}

		kind := KindUnknown
		switch windows.GetDriveType(rootPtr) {
		case windows.DRIVE_FIXED:
			kind = KindInternal
		case windows.DRIVE_REMOVABLE:
			kind = KindExternal
		case windows.DRIVE_REMOTE:
			kind = KindNetwork
		case windows.DRIVE_CDROM, windows.DRIVE_RAMDISK:
			continue
		}

		var freeToCaller, total, free uint64
		if err := windows.GetDiskFreeSpaceEx(rootPtr, &freeToCaller, &total, &free); err != nil {
			continue
		}
		if total < 1<<30 {
			continue
		}

		volumes = append(volumes, Volume{
			Path:       root,
			Kind:       kind,
			FreeBytes:  freeToCaller,
			TotalBytes: total,
		})
	}

	return volumes, nil
}
