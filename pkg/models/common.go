package models

// Rating color bands used by AtCoder for users and problem difficulty.
const (
	ColorGray   = "#808080"
	ColorBrown  = "#804000"
	ColorGreen  = "#008000"
	ColorCyan   = "#00c0c0"
	ColorBlue   = "#0000ff"
	ColorYellow = "#c0c000"
	ColorOrange = "#ff8000"
	ColorRed    = "#ff0000"
)

var colorBorders = []struct {
	color string
	upper int
}{
	{ColorGray, 400},
	{ColorBrown, 800},
	{ColorGreen, 1200},
	{ColorCyan, 1600},
	{ColorBlue, 2000},
	{ColorYellow, 2400},
	{ColorOrange, 2800},
}

// RatingColor returns the display color of a rating or difficulty. Negative
// values are clamped to zero.
func RatingColor(rating int) string {
	if rating < 0 {
		rating = 0
	}
	for _, b := range colorBorders {
		if rating < b.upper {
			return b.color
		}
	}
	return ColorRed
}
