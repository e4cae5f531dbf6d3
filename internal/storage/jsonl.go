package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

// JsonlStorage appends snapshot rows to a JSONL file, one tick per line plus
// one line per detected cliff.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutSnapshot appends a distribution snapshot as JSON lines.
func (s *JsonlStorage) PutSnapshot(snapshot model.DistributionSnapshot) error {
	if len(snapshot.Infos) == 0 && len(snapshot.Cliffs) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, info := range snapshot.Infos {
		if err := writeLine(writer, model.NewLiquidityInfoRecord(snapshot, info)); err != nil {
			return err
		}
	}
	for _, cliff := range snapshot.Cliffs {
		if err := writeLine(writer, model.NewCliffRecord(snapshot, cliff)); err != nil {
			return err
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

func writeLine(writer *bufio.Writer, record interface{}) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}
