package kernel

import (
	"math"
	"sort"
	"sync"

	"github.com/makeworld-the-better-one/dither/v2"

	"github.com/AnyUserName/ditherkit/internal/params"
)

// Matrix is a square threshold tile with values in (0, 1).
type Matrix struct {
	N int
	T []float64
}

// At returns the threshold at (x mod N, y mod N); negative coordinates wrap.
func (m *Matrix) At(x, y int) float64 {
	x %= m.N
	if x < 0 {
		x += m.N
	}
	y %= m.N
	if y < 0 {
		y += m.N
	}
	return m.T[y*m.N+x]
}

// fromRanks converts a rank matrix (0..n²-1) into centred thresholds.
func fromRanks(n int, ranks []int) *Matrix {
	t := make([]float64, len(ranks))
	total := float64(len(ranks))
	for i, r := range ranks {
		t[i] = (float64(r) + 0.5) / total
	}
	return &Matrix{N: n, T: t}
}

// bayerRanks builds the recursive Bayer index matrix of size n (power of two).
func bayerRanks(n int) []int {
	m := []int{0}
	size := 1
	for size < n {
		next := make([]int, 4*size*size)
		w := size * 2
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				v := m[y*size+x] * 4
				next[y*w+x] = v
				next[y*w+x+size] = v + 2
				next[(y+size)*w+x] = v + 3
				next[(y+size)*w+x+size] = v + 1
			}
		}
		m = next
		size = w
	}
	return m
}

// orderedRanks ranks the entries of a library matrix so any value scale
// maps onto evenly spaced thresholds. Ties keep raster order.
func orderedRanks(odm dither.OrderedDitherMatrix) (int, []int) {
	n := len(odm.Matrix)
	type entry struct {
		value uint
		index int
	}
	entries := make([]entry, 0, n*n)
	for y, row := range odm.Matrix {
		for x := 0; x < n; x++ {
			var v uint
			if x < len(row) {
				v = row[x]
			}
			entries = append(entries, entry{value: v, index: y*n + x})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	ranks := make([]int, n*n)
	for r, e := range entries {
		ranks[e.index] = r
	}
	return n, ranks
}

// BlueNoiseSize is the edge length of the generated blue-noise tile.
const BlueNoiseSize = 64

// blueNoiseRanks orders the cells of an n×n torus by progressively filling
// the largest void: each step picks the empty cell with the lowest
// Gaussian energy from the cells placed so far.
func blueNoiseRanks(n int, sigma float64) []int {
	size := n * n
	g := make([]float64, n)
	for d := 0; d < n; d++ {
		dist := float64(min(d, n-d))
		g[d] = math.Exp(-dist * dist / (2 * sigma * sigma))
	}

	energy := make([]float64, size)
	ranks := make([]int, size)
	for i := range ranks {
		ranks[i] = -1
	}

	place := func(idx, rank int) {
		ranks[idx] = rank
		px, py := idx%n, idx/n
		for y := 0; y < n; y++ {
			wy := g[(y-py+n)%n]
			row := energy[y*n : (y+1)*n]
			for x := 0; x < n; x++ {
				row[x] += wy * g[(x-px+n)%n]
			}
		}
	}

	place(0, 0)
	for rank := 1; rank < size; rank++ {
		best, bestEnergy := -1, math.Inf(1)
		for i, e := range energy {
			if ranks[i] < 0 && e < bestEnergy {
				best, bestEnergy = i, e
			}
		}
		place(best, rank)
	}
	return ranks
}

var (
	matricesOnce sync.Once
	matrices     map[params.Algorithm]*Matrix
)

func buildMatrices() {
	matrices = map[params.Algorithm]*Matrix{
		params.NoDither: {N: 1, T: []float64{0.5}},
		params.Bayer2x2: fromRanks(2, bayerRanks(2)),
		params.Bayer4x4: fromRanks(4, bayerRanks(4)),
		params.Bayer8x8: fromRanks(8, bayerRanks(8)),
	}
	n, r := orderedRanks(dither.ClusteredDot4x4)
	matrices[params.Cluster4x4] = fromRanks(n, r)
	n, r = orderedRanks(dither.ClusteredDot8x8)
	matrices[params.Cluster8x8] = fromRanks(n, r)
	matrices[params.BlueNoise] = fromRanks(BlueNoiseSize, blueNoiseRanks(BlueNoiseSize, 1.9))
}

// MatrixFor returns the threshold matrix of an ordered algorithm, or nil
// for algorithms that do not use one. Matrices are built once and shared.
func MatrixFor(a params.Algorithm) *Matrix {
	matricesOnce.Do(buildMatrices)
	return matrices[a]
}
