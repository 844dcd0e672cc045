package tiling

// Parameter bounds. Out-of-range values are clamped when assigned.
const (
	DefaultRatio = 0.5
	MinRatio     = 0.05
	MaxRatio     = 0.95

	// MinExtent is the smallest width or height a placement may have.
	MinExtent = 1
)

// Params are the per-workspace knobs a layout reads.
type Params struct {
	Ratio       float64
	Gap         int
	BorderWidth int
}

// DefaultParams returns a half-split master area with no gaps or borders.
func DefaultParams() Params {
	return Params{Ratio: DefaultRatio}
}

// SetRatio assigns the master ratio, clamped to [MinRatio, MaxRatio].
// It reports whether the value had to be clamped.
func (p *Params) SetRatio(ratio float64) bool {
	switch {
	case ratio != ratio: // NaN
		p.Ratio = DefaultRatio
		return true
	case ratio < MinRatio:
		p.Ratio = MinRatio
		return true
	case ratio > MaxRatio:
		p.Ratio = MaxRatio
		return true
	}
	p.Ratio = ratio
	return false
}

// SetGap assigns the gap size; negative values become 0.
func (p *Params) SetGap(gap int) bool {
	if gap < 0 {
		p.Gap = 0
		return true
	}
	p.Gap = gap
	return false
}

// SetBorderWidth assigns the border width; negative values become 0.
func (p *Params) SetBorderWidth(width int) bool {
	if width < 0 {
		p.BorderWidth = 0
		return true
	}
	p.BorderWidth = width
	return false
}

// NewParams builds Params through the clamping setters and reports whether
// any value was out of range.
func NewParams(ratio float64, gap, border int) (Params, bool) {
	var p Params
	a := p.SetRatio(ratio)
	b := p.SetGap(gap)
	c := p.SetBorderWidth(border)
	return p, a || b || c
}
