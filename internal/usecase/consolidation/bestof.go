package consolidation

import (
	"cmp"
	"slices"

	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/shopspring/decimal"
)

// Options configures a best-of merge.
type Options struct {
	// Threshold is the minimum relative distance between two kept prices.
	Threshold float64
	Better    signalv1.Better
	// AllowEmpty returns an empty result instead of ErrEmptyInput.
	AllowEmpty bool
}

// BestOf collapses observations into zones. Observations are walked in price
// order; one closer than Threshold to the last kept price competes with the
// current zone and replaces it only when strictly better, so ties keep the
// earlier-seen candidate. A replacement moves the last kept price.
//
// This is a single greedy pass, not an optimal clustering: a neighborhood can
// drift upward through successive replacements.
func BestOf(observations []signalv1.Observation, opts Options) ([]signalv1.ConsolidationZone, error) {
	if len(observations) == 0 {
		if opts.AllowEmpty {
			return []signalv1.ConsolidationZone{}, nil
		}
		return nil, scanv1.ErrEmptyInput
	}

	sorted := slices.Clone(observations)
	slices.SortStableFunc(sorted, func(a, b signalv1.Observation) int {
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	threshold := decimal.NewFromFloat(opts.Threshold)
	zones := make([]signalv1.ConsolidationZone, 0, len(sorted))
	var last decimal.Decimal

	for i, o := range sorted {
		if i == 0 || Far(o.Price, last, threshold) {
			zones = append(zones, zoneOf(o))
			last = o.Price
			continue
		}

		current := &zones[len(zones)-1]
		if opts.Better.Beats(o.Metric, current.DurationOrScore) {
			*current = zoneOf(o)
			last = o.Price
		}
	}

	return zones, nil
}

// Far reports whether |p - last| / last >= threshold. A zero reference price is
// only near itself.
func Far(p, last, threshold decimal.Decimal) bool {
	if last.IsZero() {
		return !p.IsZero()
	}
	return p.Sub(last).Abs().Div(last.Abs()).GreaterThanOrEqual(threshold)
}

func zoneOf(o signalv1.Observation) signalv1.ConsolidationZone {
	return signalv1.ConsolidationZone{
		PriceLevel:      o.Price,
		DurationOrScore: o.Metric,
		AnchorTime:      o.Time,
	}
}
