package core

import "sort"

// Distribution1D is a piecewise-constant density over [0,1) built from n non-negative values
type Distribution1D struct {
	Func     []float64
	cdf      []float64
	Integral float64
}

// NewDistribution1D builds the CDF of f. An all-zero f degrades to a uniform distribution.
func NewDistribution1D(f []float64) *Distribution1D {
	n := len(f)
	d := &Distribution1D{
		Func: append([]float64(nil), f...),
		cdf:  make([]float64, n+1),
	}
	for i := 1; i <= n; i++ {
		d.cdf[i] = d.cdf[i-1] + d.Func[i-1]/float64(n)
	}
	d.Integral = d.cdf[n]
	if d.Integral == 0 {
		for i := 1; i <= n; i++ {
			d.cdf[i] = float64(i) / float64(n)
		}
	} else {
		for i := 1; i <= n; i++ {
			d.cdf[i] /= d.Integral
		}
	}
	return d
}

// Count returns the number of pieces
func (d *Distribution1D) Count() int {
	return len(d.Func)
}

// SampleContinuous maps u to x in [0,1) and returns x, its density and the piece index
func (d *Distribution1D) SampleContinuous(u float64) (float64, float64, int) {
	n := d.Count()
	// Largest index whose cdf value is <= u
	offset := sort.Search(len(d.cdf), func(i int) bool { return d.cdf[i] > u }) - 1
	if offset < 0 {
		offset = 0
	}
	if offset > n-1 {
		offset = n - 1
	}

	du := u - d.cdf[offset]
	if width := d.cdf[offset+1] - d.cdf[offset]; width > 0 {
		du /= width
	}
	x := (float64(offset) + du) / float64(n)
	if x >= 1 {
		x = 1 - 1e-12
	}
	return x, d.PDF(offset), offset
}

// PDF returns the density of piece i with respect to [0,1)
func (d *Distribution1D) PDF(i int) float64 {
	if d.Integral == 0 {
		return 1
	}
	return d.Func[i] / d.Integral
}

// Distribution2D samples (u,v) in [0,1)² from a row-major grid: the marginal picks a row (v),
// the row's conditional picks a column (u)
type Distribution2D struct {
	conditional []*Distribution1D
	marginal    *Distribution1D
}

// NewDistribution2D builds the distribution from width×height values, row 0 first
func NewDistribution2D(f []float64, width, height int) *Distribution2D {
	d := &Distribution2D{conditional: make([]*Distribution1D, height)}
	rowIntegrals := make([]float64, height)
	for row := 0; row < height; row++ {
		d.conditional[row] = NewDistribution1D(f[row*width : (row+1)*width])
		rowIntegrals[row] = d.conditional[row].Integral
	}
	d.marginal = NewDistribution1D(rowIntegrals)
	return d
}

// SampleContinuous returns a point in [0,1)² with X along columns and Y along rows, and its density
func (d *Distribution2D) SampleContinuous(u Vec2) (Vec2, float64) {
	v, pdfRow, row := d.marginal.SampleContinuous(u.Y)
	x, pdfCol, _ := d.conditional[row].SampleContinuous(u.X)
	return NewVec2(x, v), pdfRow * pdfCol
}

// PDF returns the density of point p (X along columns, Y along rows)
func (d *Distribution2D) PDF(p Vec2) float64 {
	height := d.marginal.Count()
	width := d.conditional[0].Count()
	col := clampIndex(int(p.X*float64(width)), width)
	row := clampIndex(int(p.Y*float64(height)), height)
	return d.marginal.PDF(row) * d.conditional[row].PDF(col)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
