// Package analyzer scans a rendered page for elements that look like they
// hold reviews or ratings.
package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/go-scripts/reviews/internal/rating"
	"github.com/go-scripts/reviews/pkg/common"
)

var ratingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-5](` + rating.Space + `)?/(` + rating.Space + `)?5`),
	regexp.MustCompile(`★+`),
	regexp.MustCompile(`(?i)\d(` + rating.Space + `)?stars?`),
}

var ignoredTags = map[string]bool{
	"script": true,
	"style":  true,
	"meta":   true,
}

// Analyze visits every element in document order. An element becomes a
// container candidate when its lower-cased text mentions "review" or
// "rating", it has child elements and it is not script, style or meta.
// Separately, any element whose text matches a rating pattern is recorded.
// Nested elements produce duplicates; nothing is ranked or filtered.
func Analyze(doc *goquery.Document) common.PageStructure {
	structure := common.PageStructure{
		PossibleReviewContainers: []common.ContainerCandidate{},
		RatingTypes:              []common.RatingType{},
	}

	doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		tag := goquery.NodeName(el)
		text := strings.ToLower(el.Text())
		children := el.Children().Length()

		if (strings.Contains(text, "review") || strings.Contains(text, "rating")) &&
			children > 0 &&
			!ignoredTags[tag] {
			id, _ := el.Attr("id")
			class, _ := el.Attr("class")
			structure.PossibleReviewContainers = append(structure.PossibleReviewContainers, common.ContainerCandidate{
				Tag:        tag,
				Classes:    classList(class),
				ID:         id,
				ChildCount: children,
			})
		}

		if looksLikeRating(text) {
			structure.RatingTypes = append(structure.RatingTypes, common.RatingType{
				Element: tag,
				Pattern: strings.TrimSpace(text),
			})
		}
	})

	structure.HasReviewContainer = len(structure.PossibleReviewContainers) > 0
	return structure
}

// AnalyzeHTML parses a DOM snapshot and analyzes it
func AnalyzeHTML(html string) (common.PageStructure, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return common.PageStructure{}, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return Analyze(doc), nil
}

func looksLikeRating(text string) bool {
	for _, p := range ratingPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func classList(class string) []string {
	classes := strings.Fields(class)
	if classes == nil {
		return []string{}
	}
	return classes
}
