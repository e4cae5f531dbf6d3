package tickmath

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick and MaxTick bound the usable tick range of a pool.
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// Q96 is 2^96, the scaling factor of sqrtPriceX96.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

var (
	minSqrtRatio, _ = new(big.Int).SetString("4295128739", 10)
	maxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	maxUint256 = uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	roundMask  = uint256.NewInt(0xffffffff)

	// sqrt(1.0001^(2^i)) in UQ128.128 for i in 0..19. The on-chain pool
	// computes sqrtPriceX96 from exactly these multipliers, so using them
	// keeps results bit-identical.
	ratios = [20]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	one = uint256.NewInt(1)
)

// SqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 with 256-bit intermediate
// precision, matching on-chain values exactly.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d out of bounds", tick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(ratios[0])
	} else {
		ratio.Lsh(one, 128)
	}
	for i := 1; i < len(ratios); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, ratios[i]).Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Shift from Q128.128 down to Q64.96, rounding up.
	rem := new(uint256.Int).And(ratio, roundMask)
	ratio.Rsh(ratio, 32)
	if rem.Sign() > 0 {
		ratio.Add(ratio, one)
	}

	return ratio.ToBig(), nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= the given
// sqrtPriceX96. It binary-searches the valid tick range.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(minSqrtRatio) < 0 || sqrtPriceX96.Cmp(maxSqrtRatio) >= 0 {
		return 0, fmt.Errorf("sqrt price out of bounds")
	}

	low, high := MinTick, MaxTick
	var tick int32
	for low <= high {
		mid := (low + high) / 2
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}

// PriceAtTick returns the token1/token0 price at a tick adjusted for token
// decimals. Float precision is adequate here since the value is for display.
func PriceAtTick(tick int32, decimals0, decimals1 uint8) float64 {
	return math.Pow(1.0001, float64(tick)) * math.Pow10(int(decimals0)-int(decimals1))
}
