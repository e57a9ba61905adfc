package domain

import "strings"

// Sentinel labels.
const (
	LabelNone      = "None"
	LabelUndefined = "Undefined"
)

// Article is a core entity describing metadata fetched from providers.
type Article struct {
	DOI           string
	Title         string
	Abstract      string
	CoverDate     string
	Link          string
	CitationCount int
	Label         string
}

// NewArticle builds an unlabeled article.
func NewArticle(doi, title, abstract, coverDate, link string, citations int) Article {
	return Article{
		DOI:           doi,
		Title:         title,
		Abstract:      abstract,
		CoverDate:     coverDate,
		Link:          link,
		CitationCount: citations,
		Label:         LabelNone,
	}
}

// WithLabel returns a copy carrying the given label.
func (a Article) WithLabel(label string) Article {
	a.Label = label
	return a
}

// DOIKey normalizes a DOI for set membership.
func DOIKey(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		if len(doi) >= len(prefix) && strings.EqualFold(doi[:len(prefix)], prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return strings.ToLower(doi)
}

// Journal groups the articles discovered for one serial.
type Journal struct {
	ISSN         string
	Title        string
	Articles     []Article
	ArticleCount int
}

// ProcessingStatus enumerates pipeline milestones.
type ProcessingStatus string

const (
	StatusFetched    ProcessingStatus = "fetched"
	StatusClassified ProcessingStatus = "classified"
)

// LedgerEntry is an article snapshot persisted for history and audit.
type LedgerEntry struct {
	Article Article
	ISSN    string
	Status  ProcessingStatus
	RunID   string
}

// LabelCount is one row of the ledger summary.
type LabelCount struct {
	Label  string
	Status ProcessingStatus
	Count  int
}
