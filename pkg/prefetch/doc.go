// Package prefetch warms the fragment cache for the queries a shopper is
// one click away from.
//
// Example usage:
//
//	var queries []string
//	e.Page().Do(func(d *dom.Doc) {
//		queries = prefetch.Candidates(d, form.FiltersFormID, cycle.Query)
//	})
//	w := prefetch.New(fetcher, prefetch.DefaultConfig())
//	results, err := w.Warm(ctx, prefetch.URLs(path, e.Sections(), queries))
//
// The warmer:
//   - Distributes fragment URLs across a bounded worker pool
//   - Loads each URL through the cache, so warm URLs cost nothing
//   - Returns one result per URL, in input order
//   - Reports failed URLs without stopping the others
package prefetch
