package query

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Default price field names used by the storefront filter forms.
const (
	PriceMinField = "filter.v.price.gte"
	PriceMaxField = "filter.v.price.lte"
)

// SliderSelector locates the price slider whose data-max attribute holds
// the unfiltered upper bound.
const SliderSelector = ".price-slider-range"

// Builder turns form fields into a canonical query, stripping price bounds
// that do not narrow the listing.
type Builder struct {
	MinField string
	MaxField string

	// SliderMax is the configured slider maximum, nil when the page has no slider.
	SliderMax *float64
}

// NewBuilder returns a Builder for the default price fields.
func NewBuilder(sliderMax *float64) Builder {
	return Builder{
		MinField:  PriceMinField,
		MaxField:  PriceMaxField,
		SliderMax: sliderMax,
	}
}

// Build applies the normalization rules to fields:
// a lower bound equal to "0" is dropped, an upper bound equal to the slider
// maximum is dropped, and everything else is kept in field order.
func (b Builder) Build(fields Query) Query {
	out := fields
	if v, ok := out.Get(b.MinField); ok && v == "0" {
		out = out.Del(b.MinField)
	}
	if b.SliderMax != nil {
		if v, ok := out.Get(b.MaxField); ok && v == FormatBound(*b.SliderMax) {
			out = out.Del(b.MaxField)
		}
	}
	return out
}

// Encode builds and serializes fields in one step.
func (b Builder) Encode(fields Query) string {
	return b.Build(fields).Encode()
}

// FormatBound renders a price bound the way the slider reports it: the
// shortest decimal form, without trailing zeros.
func FormatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SliderMax reads the slider maximum from the first price slider under root.
// It reports false when no slider exists or its data-max is not a number.
func SliderMax(root *goquery.Selection) (*float64, bool) {
	slider := root.Find(SliderSelector).First()
	if slider.Length() == 0 {
		return nil, false
	}
	raw, ok := slider.Attr("data-max")
	if !ok {
		return nil, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}
