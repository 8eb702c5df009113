// Package reconcile merges fetched section fragments into the live page.
//
// Each named region of the page has a fixed strategy: facet controls are
// patched element by element so existing nodes keep their identity, every
// other region is replaced wholesale. Regions are independent; a missing
// or malformed region is reported and skipped without affecting the rest.
package reconcile

import (
	"errors"
	"fmt"
)

// Strategy selects how a region's fragment content reaches the live page.
type Strategy int

const (
	// PatchByID updates matching elements in place, inserts new ones and
	// removes those the fragment no longer contains.
	PatchByID Strategy = iota

	// ReplaceWholesale swaps the region's content for the fragment's.
	ReplaceWholesale
)

func (s Strategy) String() string {
	switch s {
	case PatchByID:
		return "patch-by-id"
	case ReplaceWholesale:
		return "replace-wholesale"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Region names a reconcilable area of the listing page.
type Region string

const (
	RegionFacets        Region = "facets"
	RegionActiveFilters Region = "active-filters"
	RegionAncillary     Region = "ancillary"
	RegionTriggerCounts Region = "trigger-counts"
	RegionGrid          Region = "grid"
	RegionCount         Region = "count"
)

var (
	// ErrRegionMissing means the region's node is absent from the live page
	// or from the fragment.
	ErrRegionMissing = errors.New("region missing")

	// ErrMalformedFragment means the fragment could not be parsed.
	ErrMalformedFragment = errors.New("malformed fragment")

	// errNotApplicable marks a region that has nothing to do for this
	// fragment, e.g. trigger counts for a render without a trigger.
	errNotApplicable = errors.New("region not applicable")
)

// RegionError reports why a region was skipped.
type RegionError struct {
	Region Region
	Err    error
}

// Error implements the error interface.
func (e *RegionError) Error() string {
	return fmt.Sprintf("region %s: %v", e.Region, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RegionError) Unwrap() error {
	return e.Err
}

func missing(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRegionMissing, fmt.Sprintf(format, args...))
}

// Report lists what one fragment did to the page.
type Report struct {
	Applied []Region
	Skipped []*RegionError
}

// Err joins the skipped regions' errors, nil when every region applied.
func (r Report) Err() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Skipped))
	for i, e := range r.Skipped {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Has reports whether region was applied.
func (r Report) Has(region Region) bool {
	for _, a := range r.Applied {
		if a == region {
			return true
		}
	}
	return false
}
