// internal/analyzer/features.go
package analyzer

import (
	"hash/fnv"

	"github.com/user/mindloom/internal/types"
)

// Audio and visual "analysis" is heuristic bucketing, not real feature
// extraction. Features derive from a hash of the upload bytes so the same
// file always analyzes identically.

var moods = []string{"melancholy", "warm", "restless", "serene", "intense", "wistful"}

var colorPalette = []string{
	"deep blue", "amber", "slate gray", "forest green", "crimson", "pale violet",
}

var complexities = []string{"minimal", "balanced", "layered", "dense"}

func hashBytes(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// AudioFeatures derives deterministic pseudo-features for an audio upload.
func AudioFeatures(data []byte) *types.AudioAnalysis {
	h := hashBytes(data)
	return &types.AudioAnalysis{
		Tempo:   60 + int(h%121), // 60–180 bpm
		Energy:  float64(h>>8%101) / 100,
		Valence: float64(h>>16%101) / 100,
		Mood:    moods[h>>24%uint64(len(moods))],
	}
}

// VisualFeatures derives deterministic pseudo-features for a visual upload.
func VisualFeatures(data []byte) *types.VisualAnalysis {
	h := hashBytes(data)
	first := colorPalette[h%uint64(len(colorPalette))]
	second := colorPalette[(h/7)%uint64(len(colorPalette))]
	colors := []string{first}
	if second != first {
		colors = append(colors, second)
	}
	return &types.VisualAnalysis{
		DominantColors: colors,
		Brightness:     float64(h>>8%101) / 100,
		Complexity:     complexities[h>>16%uint64(len(complexities))],
		Mood:           moods[h>>24%uint64(len(moods))],
	}
}
