// Package chart renders the per-label timeline as a self-contained Plotly page.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"ArticleClassifier/internal/timeline"
)

// DefaultTitle is used when Data.Title is empty.
const DefaultTitle = "Article Distribution by Category Over Time"

const plotlyScript = `<script src="https://cdn.plot.ly/plotly-2.35.2.min.js" charset="utf-8"></script>`

var compiledTemplate = template.Must(template.New("chart").Parse(htmlTemplate))

// Series is one line of the chart.
type Series struct {
	Name   string
	Values []int
}

// Data is everything the page needs.
type Data struct {
	Title  string
	Years  []int
	Series []Series
}

// FromBuckets turns aggregated buckets into one series per label.
func FromBuckets(title string, b timeline.Buckets) Data {
	data := Data{Title: title, Years: b.Years()}
	for _, label := range b.Labels() {
		data.Series = append(data.Series, Series{Name: label, Values: b.Series(label)})
	}
	return data
}

type trace struct {
	X    []int  `json:"x"`
	Y    []int  `json:"y"`
	Name string `json:"name"`
	Mode string `json:"mode"`
	Type string `json:"type"`
}

type axis struct {
	Title struct {
		Text string `json:"text"`
	} `json:"title"`
	DTick int `json:"dtick,omitempty"`
}

type layout struct {
	Title struct {
		Text string `json:"text"`
	} `json:"title"`
	XAxis axis `json:"xaxis"`
	YAxis axis `json:"yaxis"`
}

type templateData struct {
	Title      string
	ScriptTag  template.HTML
	TracesJSON template.JS
	LayoutJSON template.JS
	Empty      bool
}

// Render writes the HTML page for d.
func Render(w io.Writer, d Data) error {
	title := d.Title
	if title == "" {
		title = DefaultTitle
	}

	traces := make([]trace, 0, len(d.Series))
	for _, s := range d.Series {
		traces = append(traces, trace{X: d.Years, Y: s.Values, Name: s.Name, Mode: "lines+markers", Type: "scatter"})
	}

	var l layout
	l.Title.Text = title
	l.XAxis.Title.Text = "Year"
	l.XAxis.DTick = 1
	l.YAxis.Title.Text = "Number of Articles"

	tracesJSON, err := json.Marshal(traces)
	if err != nil {
		return fmt.Errorf("marshal traces: %w", err)
	}
	layoutJSON, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, templateData{
		Title:      title,
		ScriptTag:  template.HTML(plotlyScript),
		TracesJSON: template.JS(tracesJSON),
		LayoutJSON: template.JS(layoutJSON),
		Empty:      len(traces) == 0,
	}); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	_, err = buf.WriteTo(w)
	return err
}

// WriteFile renders d into path, replacing any previous chart.
func WriteFile(path string, d Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	if err := Render(f, d); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart %s: %w", path, err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  {{.ScriptTag}}
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      background: #fff;
    }
    #chart {
      width: 100%;
      height: 100vh;
    }
    .empty-state {
      text-align: center;
      color: #666;
      margin-top: 20vh;
    }
  </style>
</head>
<body>
{{if .Empty}}
  <div class="empty-state">
    <h2>{{.Title}}</h2>
    <p>No labeled articles in the selected year range.</p>
  </div>
{{else}}
  <div id="chart"></div>
  <script>
    Plotly.newPlot("chart", {{.TracesJSON}}, {{.LayoutJSON}}, {responsive: true});
  </script>
{{end}}
</body>
</html>`
