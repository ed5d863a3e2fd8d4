package inference

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-scripts/reviews/pkg/common"
)

var promptTemplate = template.Must(template.New("selectors").Parse(`Analyze this page structure and identify the most likely CSS selectors for reviews.
Page Structure: {{.Structure}}

Consider these common patterns:
1. Review containers often have class names containing: review, comment, feedback
2. Ratings might be stars (★), numbers (4/5), or text (4 out of 5)
3. Review text might be in <p>, <div>, or <span> elements
4. Author names often appear near reviews in <span>, <strong>, or dedicated classes

Return a JSON object with these selectors:
{
    "reviewContainer": "main selector for review container",
    "reviewTitle": "selector for review title",
    "reviewText": "selector for review content",
    "rating": "selector for rating",
    "reviewerName": "selector for reviewer name"
}
`))

// BuildPrompt renders the instruction sent to the model
func BuildPrompt(structure common.PageStructure) (string, error) {
	encoded, err := json.Marshal(structure)
	if err != nil {
		return "", fmt.Errorf("failed to encode page structure: %w", err)
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, struct{ Structure string }{string(encoded)}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}
