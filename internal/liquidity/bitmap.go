package liquidity

import (
	"math/big"
	"sort"
)

const bitsPerWord = 256

// Compress maps a tick onto its bitmap slot index. Division floors toward
// negative infinity so negative ticks not evenly divisible by spacing round
// down, matching the on-chain two's-complement behavior.
func Compress(tick, spacing int32) int32 {
	compressed := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		compressed--
	}
	return compressed
}

// WordPosition splits a compressed tick into its bitmap word index and the
// bit within that word.
func WordPosition(compressed int32) (int16, uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// WordRange returns the word indexes [currentWord-radius, currentWord+radius]
// for the word holding the current tick.
func WordRange(currentTick, spacing int32, radius int) []int16 {
	word, _ := WordPosition(Compress(currentTick, spacing))
	indexes := make([]int16, 0, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		indexes = append(indexes, word+int16(i))
	}
	return indexes
}

// TicksInWord reconstructs the initialized tick indexes flagged by one bitmap
// word: bit b of word w marks tick (w*256+b)*spacing.
func TicksInWord(word *big.Int, wordIndex int16, spacing int32) []int32 {
	if word == nil || word.Sign() == 0 {
		return nil
	}
	var ticks []int32
	base := int32(wordIndex) * bitsPerWord
	for bit := 0; bit < bitsPerWord; bit++ {
		if word.Bit(bit) == 1 {
			ticks = append(ticks, (base+int32(bit))*spacing)
		}
	}
	return ticks
}

// CollectTicks decodes a set of bitmap words into a deduplicated, ascending
// tick list. The current tick is force-inserted even when its bit is unset so
// the at-the-money state is always reported. Words missing from the map are
// treated as contributing zero ticks.
func CollectTicks(words map[int16]*big.Int, currentTick, spacing int32) []int32 {
	seen := make(map[int32]struct{})
	for wordIndex, word := range words {
		for _, tick := range TicksInWord(word, wordIndex, spacing) {
			seen[tick] = struct{}{}
		}
	}
	seen[currentTick] = struct{}{}

	ticks := make([]int32, 0, len(seen))
	for tick := range seen {
		ticks = append(ticks, tick)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks
}

// EncodeTicks packs tick indexes into bitmap words, the inverse of
// CollectTicks for ticks aligned to the spacing.
func EncodeTicks(ticks []int32, spacing int32) map[int16]*big.Int {
	words := make(map[int16]*big.Int)
	for _, tick := range ticks {
		word, bit := WordPosition(Compress(tick, spacing))
		if _, ok := words[word]; !ok {
			words[word] = new(big.Int)
		}
		words[word].SetBit(words[word], int(bit), 1)
	}
	return words
}
