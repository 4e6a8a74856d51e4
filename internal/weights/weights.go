// Package weights persists learned parameters between runs. Readout
// weights are plain text, one row of space separated floats per line;
// tabular tables are JSON nested arrays. Writes go to a temporary file
// that is renamed into place, so a failed save leaves the previous file
// untouched.
package weights

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pong-actor-critic/internal/agent"
)

// CellsSuffix names the file holding place cell centers next to the
// readout file.
const CellsSuffix = ".cells"

var ErrMismatch = errors.New("saved parameters do not match the agent")

// SaveRows writes rows as text.
func SaveRows(path string, rows [][]float64) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		for _, row := range rows {
			for i, v := range row {
				if i > 0 {
					if err := w.WriteByte(' '); err != nil {
						return err
					}
				}
				if _, err := w.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
					return err
				}
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadRows reads a file written by SaveRows. Blank lines are skipped.
func LoadRows(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			if row[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// SavePlayer writes the readout rows to path and the place cell centers
// to path+CellsSuffix.
func SavePlayer(path string, p *agent.Player) error {
	if err := SaveRows(path+CellsSuffix, p.Cells.Centers); err != nil {
		return fmt.Errorf("save cells: %w", err)
	}
	if err := SaveRows(path, p.Readout.Rows()); err != nil {
		return fmt.Errorf("save readout: %w", err)
	}
	return nil
}

// LoadPlayer restores what SavePlayer wrote, replacing the player's place
// cells with the saved ones. The player is left as it was if anything
// fails.
func LoadPlayer(path string, p *agent.Player) error {
	cells, err := LoadRows(path + CellsSuffix)
	if err != nil {
		return fmt.Errorf("load cells: %w", err)
	}
	rows, err := LoadRows(path)
	if err != nil {
		return fmt.Errorf("load readout: %w", err)
	}
	if err := p.Restore(cells, rows); err != nil {
		return fmt.Errorf("%w: %d cells, %d readout rows: %v", ErrMismatch, len(cells), len(rows), err)
	}
	return nil
}

// Tables is the on-disk form of a tabular learner.
type Tables struct {
	Policy [][][]float64 `json:"policy"`
	Values [][]float64   `json:"values"`
}

func SaveTabular(path string, tb *agent.Tabular) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		return json.NewEncoder(w).Encode(Tables{Policy: tb.Policy, Values: tb.Values})
	})
}

func LoadTabular(path string, tb *agent.Tabular) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var t Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tb.SetTables(t.Policy, t.Values); err != nil {
		return fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	return nil
}

func writeAtomic(path string, write func(*bufio.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
