package result_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yutanagano/nearust/pkg/config"
	"github.com/yutanagano/nearust/pkg/result"
	"github.com/yutanagano/nearust/pkg/symdel"
)

// testMatches returns a small match set for use in tests.
func testMatches() *symdel.Matches {
	return &symdel.Matches{
		I: []uint32{0, 1},
		J: []uint32{1, 2},
		D: []uint8{1, 0},
	}
}

// writeToFile runs the processor against a temp file and returns its contents.
func writeToFile(t *testing.T, cfg *config.SearchConfig, m *symdel.Matches) string {
	t.Helper()

	cfg.OutputFile = filepath.Join(t.TempDir(), "out.txt")

	p, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if err := p.WriteMatches(m); err != nil {
		t.Fatalf("WriteMatches: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

// TestNewProcessorOutputFileError verifies that a bad output path returns an error.
func TestNewProcessorOutputFileError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputFile = "/nonexistent/path/output.txt"

	_, err := result.NewProcessor(cfg)
	if err == nil {
		t.Error("expected error for unwriteable output file, got nil")
	}
}

// TestWritePlainOneBased verifies the default format shifts to 1-based indices.
func TestWritePlainOneBased(t *testing.T) {
	cfg := config.DefaultConfig()
	got := writeToFile(t, cfg, testMatches())

	want := "1,2,1\n2,3,0\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWritePlainZeroIndexed verifies -z suppresses the index shift.
func TestWritePlainZeroIndexed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ZeroIndex = true
	got := writeToFile(t, cfg, testMatches())

	want := "0,1,1\n1,2,0\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWriteTSV(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputTSV
	got := writeToFile(t, cfg, testMatches())

	want := "1\t2\t1\n2\t3\t0\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriteCSVHeader verifies the CSV format carries a header row.
func TestWriteCSVHeader(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputCSV
	got := writeToFile(t, cfg, testMatches())

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "i,j,distance" {
		t.Errorf("header = %q, want %q", lines[0], "i,j,distance")
	}
	if lines[1] != "1,2,1" {
		t.Errorf("first record = %q, want %q", lines[1], "1,2,1")
	}
}

func TestWriteJSON(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputJSON
	cfg.ZeroIndex = true
	got := writeToFile(t, cfg, testMatches())

	want := `{"i":[0,1],"j":[1,2],"d":[1,0]}` + "\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// TestWriteJSONEmpty verifies empty results serialise as arrays, not null.
func TestWriteJSONEmpty(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = config.OutputJSON
	got := writeToFile(t, cfg, &symdel.Matches{})

	want := `{"i":[],"j":[],"d":[]}` + "\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestGetSummary(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.txt")

	p, err := result.NewProcessor(cfg)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	defer p.Close()

	if err := p.WriteMatches(testMatches()); err != nil {
		t.Fatalf("WriteMatches: %v", err)
	}

	if !strings.Contains(p.GetSummary(), "2 neighbour pairs") {
		t.Errorf("summary %q should mention 2 pairs", p.GetSummary())
	}
}
