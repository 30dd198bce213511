package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Reference is one bibliography entry from a spec's references section.
type Reference struct {
	Key   string `json:"key"`   // Citation key, e.g. "[FETCH]"
	Title string `json:"title"` // Linked title text
	Href  string `json:"href,omitempty"`
}

// References holds a spec's bibliography split by normativity.
type References struct {
	Normative   []Reference `json:"normative,omitempty"`
	Informative []Reference `json:"informative,omitempty"`
}

// References extracts the bibliography. Bikeshed and ReSpec both emit a
// heading with id "normative"/"informative" followed by a <dl> of
// dt (citation key) / dd (linked title) pairs. Specs with a single
// unsplit "references" section are treated as normative.
func (e *Extractor) References(doc *goquery.Document) References {
	refs := References{
		Normative:   referenceList(doc, "#normative"),
		Informative: referenceList(doc, "#informative"),
	}

	if len(refs.Normative) == 0 && len(refs.Informative) == 0 {
		refs.Normative = referenceEntries(doc.Find("#references").Find("dl").First())
	}

	e.log.Debugf("Extracted %d normative and %d informative references",
		len(refs.Normative), len(refs.Informative))
	return refs
}

// referenceList finds the <dl> belonging to the given section heading: either
// a following sibling of the heading, or a child when the id sits on a
// wrapping section element.
func referenceList(doc *goquery.Document, anchor string) []Reference {
	marker := doc.Find(anchor).First()
	if marker.Length() == 0 {
		return nil
	}
	dl := marker.NextAllFiltered("dl").First()
	if dl.Length() == 0 {
		dl = marker.Find("dl").First()
	}
	return referenceEntries(dl)
}

func referenceEntries(dl *goquery.Selection) []Reference {
	if dl == nil || dl.Length() == 0 {
		return nil
	}

	var refs []Reference
	dl.Find("dt").Each(func(i int, dt *goquery.Selection) {
		key := strings.TrimSpace(dt.Text())
		if key == "" {
			return
		}
		ref := Reference{Key: key}

		dd := dt.NextFiltered("dd").First()
		if dd.Length() > 0 {
			link := dd.Find("a[href]").First()
			if link.Length() > 0 {
				ref.Href, _ = link.Attr("href")
				ref.Title = strings.TrimSpace(link.Text())
			} else {
				ref.Title = strings.TrimSpace(dd.Text())
			}
		}
		refs = append(refs, ref)
	})
	return refs
}
