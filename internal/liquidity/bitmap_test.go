package liquidity

import (
	"math/big"
	"reflect"
	"testing"
)

func TestCompressFloorsTowardNegativeInfinity(t *testing.T) {
	cases := []struct {
		tick, spacing, want int32
	}{
		{100, 10, 10},
		{105, 10, 10},
		{-100, 10, -10},
		{-105, 10, -11},
		{-1, 60, -1},
		{0, 60, 0},
		{59, 60, 0},
		{-60, 60, -1},
	}
	for _, tc := range cases {
		if got := Compress(tc.tick, tc.spacing); got != tc.want {
			t.Fatalf("Compress(%d, %d) = %d, want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestWordPosition(t *testing.T) {
	cases := []struct {
		compressed int32
		word       int16
		bit        uint8
	}{
		{0, 0, 0},
		{255, 0, 255},
		{256, 1, 0},
		{-1, -1, 255},
		{-256, -1, 0},
		{-257, -2, 255},
	}
	for _, tc := range cases {
		word, bit := WordPosition(tc.compressed)
		if word != tc.word || bit != tc.bit {
			t.Fatalf("WordPosition(%d) = (%d, %d), want (%d, %d)", tc.compressed, word, bit, tc.word, tc.bit)
		}
	}
}

func TestWordRange(t *testing.T) {
	got := WordRange(100, 10, 2)
	want := []int16{-2, -1, 0, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("word range mismatch: %v != %v", got, want)
	}
}

func TestBitmapBijection(t *testing.T) {
	spacing := int32(10)
	original := []int32{-2570, -600, -10, 0, 90, 110, 25600}

	words := EncodeTicks(original, spacing)
	got := CollectTicks(words, original[0], spacing)

	if !reflect.DeepEqual(got, []int32{-2570, -600, -10, 0, 90, 110, 25600}) {
		t.Fatalf("bijection mismatch: %v", got)
	}
}

func TestCollectTicksForceInsertsCurrent(t *testing.T) {
	got := CollectTicks(map[int16]*big.Int{}, 105, 10)
	if !reflect.DeepEqual(got, []int32{105}) {
		t.Fatalf("expected current tick only, got %v", got)
	}

	words := EncodeTicks([]int32{90, 110}, 10)
	got = CollectTicks(words, 100, 10)
	if !reflect.DeepEqual(got, []int32{90, 100, 110}) {
		t.Fatalf("expected current tick inserted, got %v", got)
	}
}

func TestTicksInWordNegativeWord(t *testing.T) {
	// Bit 255 of word -1 is compressed tick -1.
	word := new(big.Int).SetBit(new(big.Int), 255, 1)
	got := TicksInWord(word, -1, 60)
	if !reflect.DeepEqual(got, []int32{-60}) {
		t.Fatalf("negative word decode mismatch: %v", got)
	}
}

func TestTicksInWordEmpty(t *testing.T) {
	if got := TicksInWord(nil, 0, 10); got != nil {
		t.Fatalf("nil word should decode to nothing, got %v", got)
	}
	if got := TicksInWord(new(big.Int), 0, 10); got != nil {
		t.Fatalf("zero word should decode to nothing, got %v", got)
	}
}
