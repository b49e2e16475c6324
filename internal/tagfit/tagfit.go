// Package tagfit computes which tags fit on the widget's single tag row.
package tagfit

// MeasureFunc returns the rendered width of a text fragment in layout units.
type MeasureFunc func(text string) float64

const (
	// DefaultMaxWidth is the widget tag row budget: image width minus
	// padding and a little headroom.
	DefaultMaxWidth = 280.0

	// tagSpacing separates adjacent tags; it is omitted before the first.
	tagSpacing = 8.0

	// shrinkFactor slightly deflates measured widths to absorb
	// measurement rounding.
	shrinkFactor = 0.95
)

// ComputeVisibleTags greedily accumulates tags left to right until the next
// one would overflow maxWidth. The first overflowing tag and everything
// after it are dropped; tags are never reordered or truncated. Deterministic
// for a fixed measure function.
func ComputeVisibleTags(tags []string, maxWidth float64, measure MeasureFunc) []string {
	result := make([]string, 0, len(tags))
	if len(tags) == 0 {
		return result
	}

	currentWidth := 0.0
	for _, tag := range tags {
		tagWidth := measure("#"+tag) * shrinkFactor

		spacing := 0.0
		if len(result) > 0 {
			spacing = tagSpacing
		}

		if currentWidth+tagWidth+spacing > maxWidth {
			break
		}
		result = append(result, tag)
		currentWidth += tagWidth + spacing
	}

	return result
}
