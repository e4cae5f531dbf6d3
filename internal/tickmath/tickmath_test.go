package tickmath

import (
	"math/big"
	"testing"
)

func TestSqrtRatioAtTickZero(t *testing.T) {
	got, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(Q96) != 0 {
		t.Fatalf("tick 0 ratio mismatch: %s != %s", got, Q96)
	}
}

func TestSqrtRatioAtTickKnownValues(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{MinTick, "4295128739"},
		{MaxTick, "1461446703485210103287273052203988822378723970342"},
	}
	for _, tc := range cases {
		got, err := SqrtRatioAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		want, _ := new(big.Int).SetString(tc.want, 10)
		if got.Cmp(want) != 0 {
			t.Fatalf("tick %d: %s != %s", tc.tick, got, want)
		}
	}
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	prev, err := SqrtRatioAtTick(-1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for tick := int32(-999); tick <= 1000; tick += 37 {
		cur, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if cur.Cmp(prev) <= 0 {
			t.Fatalf("ratio not increasing at tick %d", tick)
		}
		prev = cur
	}
}

func TestSqrtRatioAtTickOutOfBounds(t *testing.T) {
	if _, err := SqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected error above MaxTick")
	}
	if _, err := SqrtRatioAtTick(MinTick - 1); err == nil {
		t.Fatalf("expected error below MinTick")
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	for _, tick := range []int32{-887272, -100000, -60, -1, 0, 1, 60, 100000, 887271} {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip mismatch: %d != %d", got, tick)
		}
	}
}

func TestTickAtSqrtRatioOutOfBounds(t *testing.T) {
	if _, err := TickAtSqrtRatio(big.NewInt(1)); err == nil {
		t.Fatalf("expected error below min sqrt ratio")
	}
}

func TestPriceAtTick(t *testing.T) {
	if got := PriceAtTick(0, 18, 18); got != 1 {
		t.Fatalf("price at tick 0 should be 1, got %v", got)
	}
	if got := PriceAtTick(6932, 18, 18); got < 1.99 || got > 2.01 {
		t.Fatalf("price at tick 6932 should be ~2, got %v", got)
	}
}
