// ------------------------------------------------------
// Nearust - Result Processor
// Index shifting and multiple output formats
// ------------------------------------------------------

package result

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/yutanagano/nearust/pkg/config"
	"github.com/yutanagano/nearust/pkg/symdel"
)

// Processor writes match sets to the configured destination and format.
// Indices are shifted to 1-based numbering unless zero-indexing is enabled.
type Processor struct {
	cfg        *config.SearchConfig
	outputFile *os.File
	pairs      int
}

// NewProcessor creates a new Processor.
// Returns an error if an output file is configured but cannot be created.
func NewProcessor(cfg *config.SearchConfig) (*Processor, error) {
	p := &Processor{cfg: cfg}

	if cfg.OutputFile != "" {
		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			return nil, fmt.Errorf("create output file %q: %w", cfg.OutputFile, err)
		}
		p.outputFile = file
	}

	return p, nil
}

// WriteMatches writes a match set in the configured format. The index base
// shift is applied uniformly to both index columns.
func (p *Processor) WriteMatches(m *symdel.Matches) error {
	if !p.cfg.ZeroIndex {
		m = m.Shift(1)
	}
	p.pairs += m.Len()

	switch p.cfg.Output {
	case config.OutputJSON:
		return p.writeJSON(m)
	case config.OutputCSV:
		return p.writeCSV(m)
	case config.OutputTSV:
		return p.writeDelimited(m, '\t')
	default:
		return p.writeDelimited(m, ',')
	}
}

// writeDelimited writes one "i<sep>j<sep>d" record per line.
func (p *Processor) writeDelimited(m *symdel.Matches, sep byte) error {
	w := bufio.NewWriter(p.writer())

	var buf []byte
	for row := 0; row < m.Len(); row++ {
		buf = buf[:0]
		buf = strconv.AppendUint(buf, uint64(m.I[row]), 10)
		buf = append(buf, sep)
		buf = strconv.AppendUint(buf, uint64(m.J[row]), 10)
		buf = append(buf, sep)
		buf = strconv.AppendUint(buf, uint64(m.D[row]), 10)
		buf = append(buf, '\n')

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write result record: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

// writeCSV writes a header row followed by one record per pair.
func (p *Processor) writeCSV(m *symdel.Matches) error {
	cw := csv.NewWriter(p.writer())

	if err := cw.Write([]string{"i", "j", "distance"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for row := 0; row < m.Len(); row++ {
		rec := []string{
			strconv.FormatUint(uint64(m.I[row]), 10),
			strconv.FormatUint(uint64(m.J[row]), 10),
			strconv.FormatUint(uint64(m.D[row]), 10),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV results: %w", err)
	}
	return nil
}

// writeJSON marshals the parallel arrays as a single object.
func (p *Processor) writeJSON(m *symdel.Matches) error {
	payload := struct {
		I []uint32 `json:"i"`
		J []uint32 `json:"j"`
		D []uint16 `json:"d"`
	}{I: m.I, J: m.J, D: make([]uint16, len(m.D))}

	// Widen distances so encoding/json emits numbers rather than base64.
	for row, d := range m.D {
		payload.D[row] = uint16(d)
	}

	// Keep empty results as [] rather than null.
	if payload.I == nil {
		payload.I = []uint32{}
		payload.J = []uint32{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSON marshal results: %w", err)
	}

	if _, err := fmt.Fprintf(p.writer(), "%s\n", data); err != nil {
		return fmt.Errorf("write JSON results: %w", err)
	}
	return nil
}

// writer returns the configured output destination (file or stdout).
func (p *Processor) writer() *os.File {
	if p.outputFile != nil {
		return p.outputFile
	}
	return os.Stdout
}

// GetSummary returns a one-line summary of all results written so far.
func (p *Processor) GetSummary() string {
	return fmt.Sprintf("Search summary: %d neighbour pairs written", p.pairs)
}

// Close closes the output file if one is open.
func (p *Processor) Close() error {
	if p.outputFile != nil {
		if err := p.outputFile.Close(); err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
	}
	return nil
}
