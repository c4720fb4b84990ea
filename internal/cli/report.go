package cli

import (
	"fmt"
	"io"

	"github.com/danielpatrickdp/quiz-calibrator/internal/encode"
	"github.com/danielpatrickdp/quiz-calibrator/internal/montecarlo"
)

// WriteDistribution prints one line per result: id, percent, count/total.
func WriteDistribution(w io.Writer, d montecarlo.Distribution) {
	for _, id := range d.Order {
		fmt.Fprintf(w, "%-24s %7.3f%% (%d/%d)\n", id, d.Percent(id), d.Counts[id], d.Total)
	}
}

// RankMode parses the --rank-mode flag as a usage error.
func RankMode(s string) (encode.RankMode, error) {
	m, err := encode.ParseRankMode(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return m, nil
}
