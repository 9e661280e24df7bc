package sim

import (
	"math"
	"math/rand"
	"testing"
)

func naiveSum(buf []float64) float64 {
	var s float64
	for _, v := range buf {
		s += v
	}
	return s
}

func TestReduceMatchesNaiveSum(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	lengths := []int{0, 1, 2, 3, 4, 7, 9, 26, 27, 28, 81, 100, 1000, 4099}
	branches := []int{2, 3, 4, 7}

	for _, branch := range branches {
		for _, n := range lengths {
			buf := make([]float64, n)
			for i := range buf {
				buf[i] = rng.Float64()*2 - 1
			}
			want := naiveSum(buf)

			e := &Engine{branch: branch, workers: 1, parallelMin: 1}
			got := e.reduce(buf, n)
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("branch %d, n %d: reduce = %g, want %g", branch, n, got, want)
			}
		}
	}
}

func TestReduceParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	buf := make([]float64, 50000)
	for i := range buf {
		buf[i] = rng.Float64()*2 - 1
	}
	want := naiveSum(buf)

	cp := make([]float64, len(buf))
	copy(cp, buf)

	serial := &Engine{branch: 3, workers: 1, parallelMin: 1}
	parallel := &Engine{branch: 3, workers: 8, parallelMin: 1}

	a := serial.reduce(buf, len(buf))
	b := parallel.reduce(cp, len(cp))
	if a != b {
		t.Errorf("serial and parallel reductions disagree: %g vs %g", a, b)
	}
	if math.Abs(a-want) > 1e-8 {
		t.Errorf("reduce = %g, want %g", a, want)
	}
}

func TestReduceLeavesResultAtIndexZero(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6, 7}
	e := &Engine{branch: 3, workers: 1, parallelMin: 1}

	got := e.reduce(buf, len(buf))
	if got != 28 {
		t.Fatalf("reduce = %g, want 28", got)
	}
	if buf[0] != 28 {
		t.Errorf("buf[0] = %g after reduction, want 28", buf[0])
	}
	for i := 1; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Errorf("buf[%d] = %g after reduction, want 0", i, buf[i])
		}
	}
}

func TestParallelForCoversRangeOnce(t *testing.T) {
	e := &Engine{branch: 3, workers: 7, parallelMin: 1}
	n := 1003

	hits := make([]int32, n)
	e.parallelFor(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			hits[i]++
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}
