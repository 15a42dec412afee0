package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

// HistogramBins is the number of fixed bins in ScoreHistogram: ten deciles
// 0-9 .. 90-99 plus a bin for a perfect 100.
const HistogramBins = 11

// Summarize computes the aggregate statistics for a set of final scores.
// Empty input yields the zero summary.
func Summarize(scores []float64, passScore int) models.ScoreSummary {
	n := len(scores)
	if n == 0 {
		return models.ScoreSummary{}
	}

	sorted := sortedCopy(scores)

	sum := 0.0
	passed := 0
	for _, s := range sorted {
		sum += s
		if IsPass(s, passScore) {
			passed++
		}
	}
	mean := sum / float64(n)

	return models.ScoreSummary{
		Count:             n,
		Highest:           sorted[n-1],
		Lowest:            sorted[0],
		Median:            median(sorted),
		Average:           mean,
		StandardDeviation: sampleStandardDeviation(sorted, mean),
		Passed:            passed,
		Failed:            n - passed,
		PassRate:          float64(passed) / float64(n),
	}
}

// IsPass applies the inclusive pass threshold.
func IsPass(score float64, passScore int) bool {
	return score >= float64(passScore)
}

// Median returns the middle value, averaging the two middle values for even
// lengths. Empty input yields 0.
func Median(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return median(sortedCopy(scores))
}

// StandardDeviation is the sample standard deviation (divisor n-1), defined as
// 0 for fewer than two scores.
func StandardDeviation(scores []float64) float64 {
	if len(scores) <= 1 {
		return 0
	}
	sorted := sortedCopy(scores)
	sum := 0.0
	for _, s := range sorted {
		sum += s
	}
	return sampleStandardDeviation(sorted, sum/float64(len(sorted)))
}

// Ranks returns the 1-based competition rank of every score, in input order.
// Tied scores share a rank: 1 + number of strictly greater scores.
func Ranks(scores []float64) []int {
	desc := sortedCopy(scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(desc)))

	ranks := make([]int, len(scores))
	for i, s := range scores {
		// first index holding a value not greater than s
		ranks[i] = sort.Search(len(desc), func(j int) bool { return desc[j] <= s }) + 1
	}
	return ranks
}

// Percentiles returns, per score, the share of the population strictly below
// it times 100.
func Percentiles(scores []float64) []float64 {
	n := len(scores)
	asc := sortedCopy(scores)

	out := make([]float64, n)
	for i, s := range scores {
		below := sort.SearchFloat64s(asc, s)
		out[i] = 100 * float64(below) / float64(n)
	}
	return out
}

// GradeDistribution counts students per letter of table, in table order.
func GradeDistribution(scores []float64, table GradeTable) []models.GradeBucket {
	letters := table.Letters()
	counts := make(map[string]int, len(letters))
	for _, s := range scores {
		counts[table.Letter(s)]++
	}

	buckets := make([]models.GradeBucket, 0, len(letters))
	for _, letter := range letters {
		bucket := models.GradeBucket{Grade: letter, Count: counts[letter]}
		if len(scores) > 0 {
			bucket.Percentage = 100 * float64(bucket.Count) / float64(len(scores))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// ScoreHistogram places percentage scores into HistogramBins fixed bins.
// Scores below 0 or above 100 land in the first and last bin respectively.
func ScoreHistogram(scores []float64) []models.ScoreBin {
	bins := make([]models.ScoreBin, HistogramBins)
	for i := 0; i < HistogramBins-1; i++ {
		bins[i] = models.ScoreBin{
			Label: fmt.Sprintf("%d-%d", i*10, i*10+9),
			Min:   i * 10,
			Max:   i*10 + 9,
		}
	}
	bins[HistogramBins-1] = models.ScoreBin{Label: "100", Min: 100, Max: 100}

	for _, s := range scores {
		bins[binIndex(s)].Count++
	}
	return bins
}

func binIndex(score float64) int {
	idx := int(math.Floor(score / 10))
	if idx < 0 {
		return 0
	}
	if idx > HistogramBins-1 {
		return HistogramBins - 1
	}
	return idx
}

func sortedCopy(scores []float64) []float64 {
	out := make([]float64, len(scores))
	copy(out, scores)
	sort.Float64s(out)
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sampleStandardDeviation(sorted []float64, mean float64) float64 {
	n := len(sorted)
	if n <= 1 {
		return 0
	}
	squares := 0.0
	for _, s := range sorted {
		d := s - mean
		squares += d * d
	}
	return math.Sqrt(squares / float64(n-1))
}
