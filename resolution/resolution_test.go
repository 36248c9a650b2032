package resolution

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Resolution
		wantErr bool
	}{
		{"dimensions", "1920x1080", Resolution{1920, 1080}, false},
		{"colon", "640:480", Resolution{640, 480}, false},
		{"preset", "720p", Resolution720p(), false},
		{"preset upper", "1080P", Resolution1080p(), false},
		{"empty", "", EmptyResolution(), false},
		{"bad width", "axb", Resolution{}, true},
		{"negative", "-1x10", Resolution{}, true},
		{"unknown preset", "999p", Resolution{}, true},
		{"garbage", "large", Resolution{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolution_Format(t *testing.T) {
	r := Resolution{Width: 640, Height: 360}
	if got := r.Format("scale=w:h"); got != "scale=640:360" {
		t.Errorf("Format() = %q", got)
	}
	if got := r.String(); got != "640x360" {
		t.Errorf("String() = %q", got)
	}
}

func TestResolution_Fit(t *testing.T) {
	tests := []struct {
		name   string
		bounds Resolution
		w, h   int
		want   Resolution
	}{
		{"empty bounds keep size", EmptyResolution(), 1920, 1080, Resolution{1920, 1080}},
		{"already inside", Resolution{1280, 720}, 640, 480, Resolution{640, 480}},
		{"width bound", Resolution{640, 640}, 1920, 1080, Resolution{640, 360}},
		{"height bound", Resolution{1000, 240}, 640, 480, Resolution{320, 240}},
		{"odd rounded down", Resolution{321, 1000}, 642, 482, Resolution{320, 240}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bounds.Fit(tt.w, tt.h); got != tt.want {
				t.Errorf("Fit(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}
