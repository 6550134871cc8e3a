package scrape

import (
	"strings"

	"jobmarket-engine/internal/domain"
	"jobmarket-engine/internal/scrape/types"

	"github.com/PuerkitoBio/goquery"
)

// Parse walks the posting cards of one results page in document order.
// A card missing a required field is skipped; the rest of the page still
// parses.
func Parse(doc *goquery.Document, p types.Profile) []domain.RawFieldSet {
	if doc == nil || strings.TrimSpace(p.Card) == "" {
		return nil
	}

	var out []domain.RawFieldSet
	doc.Find(p.Card).Each(func(_ int, card *goquery.Selection) {
		if raw, ok := parseCard(card, p.Fields); ok {
			out = append(out, raw)
		}
	})
	return out
}

func parseCard(card *goquery.Selection, f types.Fields) (domain.RawFieldSet, bool) {
	var raw domain.RawFieldSet
	var ok bool

	// title and company are required for every source
	if raw.Title, ok = readField(card, f.Title, true); !ok {
		return raw, false
	}
	if raw.Company, ok = readField(card, f.Company, true); !ok {
		return raw, false
	}
	if raw.Location, ok = readField(card, f.Location, f.Location.Required); !ok {
		return raw, false
	}
	if raw.Description, ok = readField(card, f.Description, f.Description.Required); !ok {
		return raw, false
	}
	if raw.DatePosted, ok = readField(card, f.DatePosted, f.DatePosted.Required); !ok {
		return raw, false
	}
	return raw, true
}

// readField returns the raw text (or attribute) of the first match. ok is
// false only when a required value is missing or blank.
func readField(card *goquery.Selection, fs types.FieldSelector, required bool) (string, bool) {
	sel := strings.TrimSpace(fs.Selector)
	if sel == "" {
		return "", !required
	}

	node := card.Find(sel).First()
	if node.Length() == 0 {
		return "", !required
	}

	var v string
	if fs.Attr != "" {
		a, exists := node.Attr(fs.Attr)
		if !exists {
			return "", !required
		}
		v = a
	} else {
		v = node.Text()
	}

	if required && strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
