package drives

// Recommend returns the volume with the most free space among those meeting
// the required free space, or nil when none qualifies.
func Recommend(volumes []Volume, requiredGB int) *Volume {
	var best *Volume
	for i := range volumes {
		v := &volumes[i]
		if v.FreeGB() < float64(requiredGB) {
			continue
		}
		if best == nil || v.FreeBytes > best.FreeBytes {
			best = v
		}
	}
	return best
}

// FindByPath returns the volume whose root matches path, or nil.
func FindByPath(volumes []Volume, path string) *Volume {
	for i := range volumes {
		if volumes[i].Path == path {
			return &volumes[i]
		}
	}
	return nil
}
