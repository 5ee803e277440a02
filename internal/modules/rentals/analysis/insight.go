package analysis

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Insight summarizes the seasonal means.
type Insight struct {
	TopCategory string  `json:"top_category"`
	TopMean     float64 `json:"top_mean"`
	// VariationPct is (max-min) / mean(means) * 100.
	VariationPct float64 `json:"variation_pct"`
}

// SeasonalInsight computes the insight over labeled categories only.
func SeasonalInsight(means []CategoryMean) (Insight, error) {
	labeled := Labeled(means)
	if len(labeled) == 0 {
		return Insight{}, ErrNoLabeledCategory
	}

	top := ArgMax(labeled)
	lo, hi, sum := labeled[0].Mean, labeled[0].Mean, 0.0
	for _, m := range labeled {
		lo = min(lo, m.Mean)
		hi = max(hi, m.Mean)
		sum += m.Mean
	}
	ins := Insight{TopCategory: labeled[top].Label, TopMean: labeled[top].Mean}
	if avg := sum / float64(len(labeled)); avg != 0 {
		ins.VariationPct = (hi - lo) / avg * 100
	}
	return ins, nil
}

// Lines renders the insight for tag, for example
// "Rata-rata penyewaan tertinggi: 400,00 sepeda/hari" in Indonesian.
func (i Insight) Lines(tag language.Tag) []string {
	p := message.NewPrinter(tag)
	return []string{
		p.Sprintf("Musim dengan penyewaan tertinggi: %s", i.TopCategory),
		p.Sprintf("Rata-rata penyewaan tertinggi: %.2f sepeda/hari", i.TopMean),
		p.Sprintf("Variasi antar musim: %.1f%%", i.VariationPct),
	}
}
