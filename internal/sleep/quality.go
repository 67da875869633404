package sleep

// Quality scores cover the 0..5 scale the rating screen offers.
const (
	QualityMin = 0
	QualityMax = 5
)

// ValidQuality reports whether q is a score the rating workflow accepts.
func ValidQuality(q int) bool {
	return q >= QualityMin && q <= QualityMax
}

// QualityLabel returns the display label for a score.
func QualityLabel(q int) string {
	switch q {
	case 0:
		return "terrible"
	case 1:
		return "poor"
	case 2:
		return "fair"
	case 3:
		return "okay"
	case 4:
		return "good"
	case 5:
		return "excellent"
	default:
		return "unrated"
	}
}
