package timeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ArticleClassifier/internal/domain"
)

func labeled(doi, date, label string) domain.Article {
	return domain.NewArticle(doi, "t", "a", date, "", 0).WithLabel(label)
}

func TestAggregateSkipsOutOfRange(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		labeled("1", "2019-01-01", "Bio"),
		labeled("2", "2020-05-05", "Bio"),
		labeled("3", "2020-07-07", "Chem"),
		labeled("4", "2022-01-01", "Bio"),
		labeled("5", "n.d.", "Bio"),
		labeled("6", "", "Bio"),
	}

	buckets := Aggregate(articles, YearRange{Start: 2019, End: 2021}, nil)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}

	if buckets[0].Year != 2019 || buckets[0].Counts["Bio"] != 1 || buckets[0].Counts[TotalKey] != 1 {
		t.Fatalf("unexpected 2019 bucket %+v", buckets[0])
	}
	if buckets[1].Counts["Bio"] != 1 || buckets[1].Counts["Chem"] != 1 || buckets[1].Counts[TotalKey] != 2 {
		t.Fatalf("unexpected 2020 bucket %+v", buckets[1])
	}
	if buckets[2].Counts[TotalKey] != 0 {
		t.Fatalf("2021 bucket should be empty, got %+v", buckets[2])
	}
}

func TestAggregateTotalIsSumOfLabels(t *testing.T) {
	t.Parallel()

	var articles []domain.Article
	labels := []string{"A", "B", "C", "Undefined"}
	for i := 0; i < 200; i++ {
		date := []string{"2010", "2011-02", "2015-12-31", "2025-01-01", "2009-01-01", "x"}[i%6]
		articles = append(articles, labeled(string(rune('a'+i%26))+date, date, labels[i%len(labels)]))
	}

	for _, b := range Aggregate(articles, YearRange{Start: 2010, End: 2025}, nil) {
		sum := 0
		for label, n := range b.Counts {
			if label != TotalKey {
				sum += n
			}
		}
		if sum != b.Counts[TotalKey] {
			t.Fatalf("year %d: total %d != sum %d", b.Year, b.Counts[TotalKey], sum)
		}
	}
}

func TestYearOf(t *testing.T) {
	t.Parallel()

	cases := map[string]int{"2020-01-01": 2020, "1999": 1999}
	for in, want := range cases {
		if got, ok := YearOf(in); !ok || got != want {
			t.Fatalf("YearOf(%q) = %d, %v", in, got, ok)
		}
	}
	for _, in := range []string{"", "202", "20a0-01", " 2020"} {
		if _, ok := YearOf(in); ok {
			t.Fatalf("YearOf(%q) should fail", in)
		}
	}
}

func TestFitRangeAndSeries(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		labeled("1", "2018-01-01", "Bio"),
		labeled("2", "2021-01-01", "Chem"),
		labeled("3", "bad", "Chem"),
	}
	r, ok := FitRange(articles)
	if !ok || r.Start != 2018 || r.End != 2021 {
		t.Fatalf("unexpected fit range %+v %v", r, ok)
	}

	buckets := Aggregate(articles, r, nil)
	if got := buckets.Labels(); len(got) != 2 || got[0] != "Bio" || got[1] != "Chem" {
		t.Fatalf("unexpected labels %v", got)
	}
	if got := buckets.Series("Chem"); len(got) != 4 || got[3] != 1 || got[0] != 0 {
		t.Fatalf("unexpected series %v", got)
	}

	if _, ok := FitRange(nil); ok {
		t.Fatalf("empty input has no range")
	}
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	buckets := Aggregate([]domain.Article{labeled("1", "2020", "Bio")}, YearRange{Start: 2020, End: 2021}, nil)

	var buf bytes.Buffer
	if err := WriteSummary(&buf, buckets); err != nil {
		t.Fatalf("WriteSummary error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "}{") {
		t.Fatalf("objects should be concatenated without separator: %q", out)
	}
	if !strings.Contains(out, "\n    \"Bio\": 1") {
		t.Fatalf("expected 4-space indentation: %q", out)
	}

	dec := json.NewDecoder(strings.NewReader(out))
	var objects []map[string]int
	for dec.More() {
		var m map[string]int
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		objects = append(objects, m)
	}
	if len(objects) != 2 || objects[0][TotalKey] != 1 || objects[1][TotalKey] != 0 {
		t.Fatalf("unexpected objects %v", objects)
	}

	if SummaryPath("data.csv") != "data.csv.txt" {
		t.Fatalf("unexpected summary path")
	}
}
