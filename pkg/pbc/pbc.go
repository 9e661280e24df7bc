// Package pbc implements the periodic boundary condition arithmetic: wrapping
// a coordinate into the box and the minimum image convention for distances.
package pbc

// Wrap brings the coordinate c into [0, l) by adding or subtracting the box
// length l as many times as needed. It must not be used for distance
// calculations; see MinImage.
func Wrap(c, l float64) float64 {
	for c < 0 {
		c += l
	}
	for c >= l {
		c -= l
	}
	return c
}

// MinImage returns the minimum image of the displacement d along an axis of
// length l. The result lies in (-l/2, l/2] and differs from d by an integer
// multiple of l.
func MinImage(d, l float64) float64 {
	half := l / 2
	for d <= -half {
		d += l
	}
	for d > half {
		d -= l
	}
	return d
}

// Dist2 returns the squared minimum image distance between two points in a
// periodic box of dimensions box.
func Dist2(a, b, box [3]float64) float64 {
	var d2 float64
	for k := 0; k < 3; k++ {
		d := MinImage(a[k]-b[k], box[k])
		d2 += d * d
	}
	return d2
}
