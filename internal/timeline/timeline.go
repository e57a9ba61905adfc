// Package timeline buckets labeled articles by publication year.
package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"ArticleClassifier/internal/domain"
)

// TotalKey is the per-bucket counter of all in-range articles.
const TotalKey = "Total"

// YearRange is an inclusive span of years.
type YearRange struct {
	Start int
	End   int
}

// Contains reports whether year lies inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// Years lists every year of the range in ascending order.
func (r YearRange) Years() []int {
	if r.End < r.Start {
		return nil
	}
	years := make([]int, 0, r.End-r.Start+1)
	for y := r.Start; y <= r.End; y++ {
		years = append(years, y)
	}
	return years
}

// Bucket holds the label counts of one year. Counts always has TotalKey.
type Bucket struct {
	Year   int            `json:"year"`
	Counts map[string]int `json:"counts"`
}

// Buckets is ordered by year, one entry per year of the range.
type Buckets []Bucket

// Aggregate tallies articles into one bucket per year of r. Articles whose
// date has no four-digit year prefix, or whose year falls outside r, are
// skipped and logged.
func Aggregate(articles []domain.Article, r YearRange, log *slog.Logger) Buckets {
	years := r.Years()
	buckets := make(Buckets, len(years))
	for i, y := range years {
		buckets[i] = Bucket{Year: y, Counts: map[string]int{TotalKey: 0}}
	}

	for _, a := range articles {
		year, ok := YearOf(a.CoverDate)
		if !ok {
			logSkip(log, "skip article without year", a, "date", a.CoverDate)
			continue
		}
		if !r.Contains(year) {
			logSkip(log, "year not in range", a, "year", year)
			continue
		}

		b := buckets[year-r.Start]
		b.Counts[a.Label]++
		b.Counts[TotalKey]++
	}

	return buckets
}

// YearOf parses the leading four digits of a date string.
func YearOf(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

// FitRange returns the min..max year found in articles.
func FitRange(articles []domain.Article) (YearRange, bool) {
	var (
		r     YearRange
		found bool
	)
	for _, a := range articles {
		year, ok := YearOf(a.CoverDate)
		if !ok {
			continue
		}
		if !found || year < r.Start {
			r.Start = year
		}
		if !found || year > r.End {
			r.End = year
		}
		found = true
	}
	return r, found
}

// Labels returns every label counted in any bucket, sorted, without TotalKey.
func (b Buckets) Labels() []string {
	set := map[string]struct{}{}
	for _, bucket := range b {
		for label := range bucket.Counts {
			if label != TotalKey {
				set[label] = struct{}{}
			}
		}
	}
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Series returns the per-year counts of label, zero where absent.
func (b Buckets) Series(label string) []int {
	series := make([]int, len(b))
	for i, bucket := range b {
		series[i] = bucket.Counts[label]
	}
	return series
}

// Years returns the bucket years in order.
func (b Buckets) Years() []int {
	years := make([]int, len(b))
	for i, bucket := range b {
		years[i] = bucket.Year
	}
	return years
}

// SummaryPath is where the summary of csvPath is written.
func SummaryPath(csvPath string) string {
	return csvPath + ".txt"
}

// WriteSummary writes each bucket as a 4-space indented JSON object, the
// objects concatenated without separators.
func WriteSummary(w io.Writer, b Buckets) error {
	for _, bucket := range b {
		raw, err := json.MarshalIndent(bucket.Counts, "", "    ")
		if err != nil {
			return fmt.Errorf("marshal bucket %d: %w", bucket.Year, err)
		}
		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("write bucket %d: %w", bucket.Year, err)
		}
	}
	return nil
}

// WriteSummaryFile truncates path and writes the summary to it.
func WriteSummaryFile(path string, b Buckets) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary %s: %w", path, err)
	}
	if err := WriteSummary(f, b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close summary %s: %w", path, err)
	}
	return nil
}

func logSkip(log *slog.Logger, msg string, a domain.Article, args ...any) {
	if log == nil {
		return
	}
	log.Info(msg, append([]any{"doi", a.DOI}, args...)...)
}
