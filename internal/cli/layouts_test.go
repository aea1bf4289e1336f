package cli

import (
	"strings"
	"testing"

	"github.com/gridbooth/gridbooth/pkg/compose"
)

func TestParseShape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCols uint32
		wantRows uint32
		wantErr  bool
	}{
		{"simple", "3x2", 3, 2, false},
		{"single cell", "1x1", 1, 1, false},
		{"uppercase separator", "3X2", 3, 2, false},
		{"empty", "", 0, 0, true},
		{"missing separator", "3", 0, 0, true},
		{"missing rows", "3x", 0, 0, true},
		{"missing cols", "x2", 0, 0, true},
		{"zero cols", "0x2", 0, 0, true},
		{"zero rows", "2x0", 0, 0, true},
		{"not numbers", "axb", 0, 0, true},
		{"too many parts", "3x2x1", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows, err := parseShape(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseShape(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cols != tt.wantCols || rows != tt.wantRows {
				t.Errorf("parseShape(%q) = %dx%d, want %dx%d", tt.input, cols, rows, tt.wantCols, tt.wantRows)
			}
		})
	}
}

func TestLayoutTable(t *testing.T) {
	out := layoutTable(compose.Layouts())

	for _, want := range []string{"ID", "4x6-4cut", "5x7-6cut", "built-in"} {
		if !strings.Contains(out, want) {
			t.Errorf("layout table missing %q:\n%s", want, out)
		}
	}
}

func TestRunResolveInvalidShape(t *testing.T) {
	if err := runResolve("bogus"); err == nil {
		t.Error("expected an error for an unparseable shape")
	}
}
