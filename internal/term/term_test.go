package term

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorMode
		wantErr bool
	}{
		{"", ColorAuto, false},
		{"auto", ColorAuto, false},
		{"always", ColorAlways, false},
		{"never", ColorNever, false},
		{"sometimes", "", true},
	}

	for _, tt := range tests {
		got, err := ParseColorMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseColorMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseColorMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUseColor(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if IsTerminal(f.Fd()) {
		t.Fatal("a regular file is not a terminal")
	}

	t.Setenv("NO_COLOR", "")
	if !UseColor(ColorAlways, f) {
		t.Error("always must force color")
	}
	if UseColor(ColorNever, f) {
		t.Error("never must disable color")
	}
	if UseColor(ColorAuto, f) {
		t.Error("auto must not color a file")
	}
	if UseColor(ColorAuto, nil) {
		t.Error("auto must not color a nil file")
	}
}
