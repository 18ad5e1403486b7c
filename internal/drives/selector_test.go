package drives

import "testing"

func gb(n uint64) uint64 { return n << 30 }

func TestRecommend(t *testing.T) {
	tests := []struct {
		name       string
		volumes    []Volume
		requiredGB int
		want       string // expected Path, "" for nil
	}{
		{
			name: "picks largest free among sufficient",
			volumes: []Volume{
				{Path: "C:\\", FreeBytes: gb(60), TotalBytes: gb(500)},
				{Path: "D:\\", FreeBytes: gb(200), TotalBytes: gb(1000)},
				{Path: "E:\\", FreeBytes: gb(120), TotalBytes: gb(256)},
			},
			requiredGB: 50,
			want:       "D:\\",
		},
		{
			name: "ignores volumes below the requirement",
			volumes: []Volume{
				{Path: "C:\\", FreeBytes: gb(20), TotalBytes: gb(500)},
				{Path: "D:\\", FreeBytes: gb(55), TotalBytes: gb(1000)},
			},
			requiredGB: 50,
			want:       "D:\\",
		},
		{
			name: "nil when nothing qualifies",
			volumes: []Volume{
				{Path: "C:\\", FreeBytes: gb(10), TotalBytes: gb(500)},
			},
			requiredGB: 50,
			want:       "",
		},
		{
			name:       "nil for empty list",
			volumes:    nil,
			requiredGB: 50,
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.volumes, tt.requiredGB)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Recommend() = %v, want nil", got.Path)
				}
				return
			}
			if got == nil || got.Path != tt.want {
				t.Errorf("Recommend() = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestFindByPath(t *testing.T) {
	volumes := []Volume{
		{Path: "C:\\", Kind: KindInternal},
		{Path: "F:\\", Kind: KindExternal},
	}

	if v := FindByPath(volumes, "F:\\"); v == nil || v.Kind != KindExternal {
		t.Errorf("FindByPath(F) = %v, want external volume", v)
	}
	if v := FindByPath(volumes, "Z:\\"); v != nil {
		t.Errorf("FindByPath(Z) = %v, want nil", v)
	}
}
