// Package extractor applies inferred selectors to a rendered page and turns
// what it finds into reviews.
package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/go-scripts/reviews/internal/rating"
	"github.com/go-scripts/reviews/pkg/common"
)

// Extract returns one RawReview per element matching sel.ReviewContainer
// whose body text is not blank. A selector that matches nothing, or cannot
// be parsed, yields no reviews rather than an error.
func Extract(doc *goquery.Document, sel common.SelectorMap) []common.RawReview {
	reviews := []common.RawReview{}

	doc.Find(sel.ReviewContainer).Each(func(_ int, el *goquery.Selection) {
		review := common.RawReview{
			Title:  firstText(el, sel.ReviewTitle),
			Text:   bodyText(el, sel.ReviewText),
			Rating: rating.Extract(firstText(el, sel.Rating)),
			Author: firstText(el, sel.ReviewerName),
		}
		if strings.TrimSpace(review.Text) == "" {
			return
		}
		reviews = append(reviews, review)
	})

	return reviews
}

// ExtractHTML parses a DOM snapshot and extracts from it
func ExtractHTML(html string, sel common.SelectorMap) ([]common.RawReview, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return Extract(doc, sel), nil
}

// Normalize maps raw reviews to the client schema, filling defaults.
func Normalize(raw []common.RawReview) []common.Review {
	reviews := make([]common.Review, 0, len(raw))
	for _, r := range raw {
		review := common.Review{
			Title:    r.Title,
			Body:     r.Text,
			Rating:   rating.Normalize(r.Rating),
			Reviewer: r.Author,
		}
		if review.Title == "" {
			review.Title = common.DefaultTitle
		}
		if review.Reviewer == "" {
			review.Reviewer = common.DefaultReviewer
		}
		reviews = append(reviews, review)
	}
	return reviews
}

// bodyText tries the inferred text selector, then the first paragraph,
// then every paragraph joined with spaces.
func bodyText(el *goquery.Selection, selector string) string {
	if text := firstText(el, selector); text != "" {
		return text
	}

	paragraphs := el.Find("p")
	if text := strings.TrimSpace(paragraphs.First().Text()); text != "" {
		return text
	}

	parts := paragraphs.Map(func(_ int, p *goquery.Selection) string {
		return strings.TrimSpace(p.Text())
	})
	return strings.Join(parts, " ")
}

// firstText returns the trimmed text of the first descendant matching
// selector, or "" when nothing matches.
func firstText(el *goquery.Selection, selector string) string {
	match := el.Find(selector).First()
	if match.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(match.Text())
}
