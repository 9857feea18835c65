package ocean

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// BathymetryConfig controls procedural sea-floor generation.
type BathymetryConfig struct {
	Seed        int64
	Scale       float64 // noise frequency per tile
	Octaves     int
	Persistence float64
	SeaLevel    float64 // normalized noise level below which a tile is water (0-1)
	MaxDepth    float64 // depth of the deepest tile, in meters
}

// DefaultBathymetry returns a mostly-water configuration.
func DefaultBathymetry() BathymetryConfig {
	return BathymetryConfig{
		Seed:        1,
		Scale:       0.08,
		Octaves:     3,
		Persistence: 0.5,
		SeaLevel:    0.8,
		MaxDepth:    500,
	}
}

// Bathymetry returns an altitude function built from layered simplex noise.
// Water tiles get altitudes in [-MaxDepth, 0).
func Bathymetry(cfg BathymetryConfig) func(x, y int) float64 {
	noise := opensimplex.NewNormalized(cfg.Seed)
	octaves := max(cfg.Octaves, 1)
	return func(x, y int) float64 {
		n := OctaveNoise(noise, float64(x)*cfg.Scale, float64(y)*cfg.Scale, octaves, cfg.Persistence)
		if n < cfg.SeaLevel {
			// deeper the further below sea level
			depth := (cfg.SeaLevel - n) / cfg.SeaLevel
			return -max(depth*cfg.MaxDepth, 1)
		}
		return (n - cfg.SeaLevel) * 100
	}
}

// OctaveNoise sums octaves of normalized simplex noise, staying in [0,1].
func OctaveNoise(noise opensimplex.Noise, x, y float64, octaves int, persistence float64) float64 {
	var total, amplitude, norm float64 = 0, 1, 0
	freq := 1.0
	for range octaves {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		norm += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / norm
}
