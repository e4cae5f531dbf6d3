package storage

import (
	"bufio"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carmen0208/arb-analysis-dashboard-demo-sub001/internal/model"
)

func TestPutSnapshotAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "distribution.jsonl")
	sink := NewJsonlStorage(path)

	snapshot := model.DistributionSnapshot{
		PoolAddress: "0x1111111111111111111111111111111111111111",
		CurrentTick: 100,
		TickSpacing: 10,
		ObservedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Infos: []model.LiquidityInfo{
			{Tick: 90, Available: big.NewInt(800), Initialized: true},
			{Tick: 100, Available: big.NewInt(1000), IsCurrentTick: true},
		},
		Cliffs: []model.Cliff{
			{Tick: 110, PreviousLiquidity: big.NewInt(1000), CurrentLiquidity: big.NewInt(750), DeltaPct: 25},
		},
	}

	if err := sink.PutSnapshot(snapshot); err != nil {
		t.Fatalf("put snapshot: %v", err)
	}
	if err := sink.PutSnapshot(snapshot); err != nil {
		t.Fatalf("put snapshot again: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("parse line: %v", err)
		}
		lines = append(lines, row)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// Two appends of 2 ticks + 1 cliff each.
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	if lines[0]["available_liquidity"] != "800" {
		t.Fatalf("first tick row mismatch: %v", lines[0])
	}
	if lines[1]["is_current_tick"] != true {
		t.Fatalf("current tick flag missing: %v", lines[1])
	}
	if lines[2]["delta_pct"] != float64(25) {
		t.Fatalf("cliff row mismatch: %v", lines[2])
	}
}

func TestPutSnapshotEmptyNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "distribution.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutSnapshot(model.DistributionSnapshot{}); err != nil {
		t.Fatalf("put empty snapshot: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err: %v", err)
	}
}
