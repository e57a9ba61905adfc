package scopus

import (
	"bytes"
	"encoding/json"
	"strings"

	"ArticleClassifier/internal/domain"
)

// field decodes a loosely typed JSON scalar. Null, missing keys, blank text
// and the literals "null"/"None" all decode to the absent variant.
type field struct {
	value   string
	present bool
}

func (f *field) UnmarshalJSON(b []byte) error {
	*f = field{}

	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var text string
	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
	case '{', '[', 't', 'f':
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return nil
		}
		text = n.String()
	}

	text = strings.TrimSpace(text)
	if text == "" || text == "null" || text == "None" {
		return nil
	}
	*f = field{value: text, present: true}
	return nil
}

func (f field) optional() domain.Optional[string] {
	if !f.present {
		return domain.None[string]()
	}
	return domain.Some(f.value)
}

type serialTitleResponse struct {
	Response struct {
		Entry []struct {
			Title field `json:"dc:title"`
		} `json:"entry"`
	} `json:"serial-metadata-response"`
}

type searchResponse struct {
	Results struct {
		TotalResults field         `json:"opensearch:totalResults"`
		Entry        []searchEntry `json:"entry"`
	} `json:"search-results"`
}

type searchEntry struct {
	DOI       field `json:"prism:doi"`
	CitedBy   field `json:"citedby-count"`
	CoverDate field `json:"prism:coverDate"`
}

type articleResponse struct {
	Retrieval struct {
		Coredata coredata `json:"coredata"`
	} `json:"full-text-retrieval-response"`
}

type coredata struct {
	Description field  `json:"dc:description"`
	Title       field  `json:"dc:title"`
	CoverDate   field  `json:"prism:coverDate"`
	DOI         field  `json:"prism:doi"`
	Links       []link `json:"link"`
}

type link struct {
	Href field `json:"@href"`
	Rel  field `json:"@rel"`
}

// articleRecord is the detail payload after boundary decoding.
type articleRecord struct {
	DOI       domain.Optional[string]
	Title     domain.Optional[string]
	Abstract  domain.Optional[string]
	CoverDate domain.Optional[string]
	Link      domain.Optional[string]
}

func (c coredata) record() articleRecord {
	return articleRecord{
		DOI:       c.DOI.optional(),
		Title:     c.Title.optional(),
		Abstract:  c.Description.optional(),
		CoverDate: c.CoverDate.optional(),
		Link:      pickLink(c.Links),
	}
}

// pickLink prefers the ScienceDirect landing page, then the second link
// (where Elsevier places it), then whatever is first.
func pickLink(links []link) domain.Optional[string] {
	for _, l := range links {
		if l.Rel.value == "scidir" && l.Href.present {
			return l.Href.optional()
		}
	}
	if len(links) > 1 && links[1].Href.present {
		return links[1].Href.optional()
	}
	if len(links) > 0 {
		return links[0].Href.optional()
	}
	return domain.None[string]()
}
