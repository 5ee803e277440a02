package dataset

// UnlabeledCategory is shown where a code has no label.
const UnlabeledCategory = "(tanpa label)"

var seasonLabels = map[int]string{
	1: "Musim Dingin",
	2: "Musim Semi",
	3: "Musim Panas",
	4: "Musim Gugur",
}

var weekdayLabels = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// SeasonLabel maps a season code in 1..4. ok is false for any other code.
func SeasonLabel(code int) (label string, ok bool) {
	label, ok = seasonLabels[code]
	return label, ok
}

// SeasonCode is the inverse of SeasonLabel.
func SeasonCode(label string) (int, bool) {
	for code, l := range seasonLabels {
		if l == label {
			return code, true
		}
	}
	return 0, false
}

// SeasonLabels returns the labels in code order.
func SeasonLabels() []string {
	return []string{seasonLabels[1], seasonLabels[2], seasonLabels[3], seasonLabels[4]}
}

// WeekdayLabel maps 0 (Sunday) through 6 (Saturday).
func WeekdayLabel(code int) (string, bool) {
	if code < 0 || code >= len(weekdayLabels) {
		return "", false
	}
	return weekdayLabels[code], true
}

func WeekdayCode(label string) (int, bool) {
	for i, l := range weekdayLabels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// Count groups are right-inclusive ranges over cnt, except the first which also
// includes 0: [0,100], (100,200], (200,300], (300,400], (400,500].
var countGroups = []struct {
	upper int
	label string
}{
	{100, "Sangat Rendah"},
	{200, "Rendah"},
	{300, "Sedang"},
	{400, "Tinggi"},
	{500, "Sangat Tinggi"},
}

// CountGroup bins cnt. ok is false outside [0, 500].
func CountGroup(cnt int) (label string, ok bool) {
	if cnt < 0 {
		return "", false
	}
	for _, g := range countGroups {
		if cnt <= g.upper {
			return g.label, true
		}
	}
	return "", false
}

// CountGroupRank is the ordinal of a group label starting at 0, or -1 when unknown.
func CountGroupRank(label string) int {
	for i, g := range countGroups {
		if g.label == label {
			return i
		}
	}
	return -1
}

// CountGroupLabels returns the labels from lowest to highest.
func CountGroupLabels() []string {
	out := make([]string, len(countGroups))
	for i, g := range countGroups {
		out[i] = g.label
	}
	return out
}
