package reconcile

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
)

func (r *Reconciler) applyActiveFilters(d *dom.Doc, frag *goquery.Document, _ *Trigger) error {
	defer SetRemovePillsDisabled(d, false)

	found := 0
	var absent []string
	for _, selector := range activeFilterSelectors {
		source := frag.Find(selector).First()
		if source.Length() == 0 {
			continue
		}
		found++
		target := d.Find(selector).First()
		if target.Length() == 0 {
			absent = append(absent, selector)
			continue
		}
		target.SetHtml(dom.InnerHTML(source))
	}

	if found == 0 {
		return missing("fragment has no active filters")
	}
	if len(absent) > 0 {
		return missing("live page lacks %s", strings.Join(absent, ", "))
	}
	return nil
}

func (r *Reconciler) applyAncillary(d *dom.Doc, frag *goquery.Document, _ *Trigger) error {
	var absent []string
	for _, selector := range ancillarySelectors {
		source := frag.Find(selector).First()
		if source.Length() == 0 {
			continue
		}
		target := d.Find(selector).First()
		if target.Length() == 0 {
			absent = append(absent, selector)
			continue
		}
		target.SetHtml(dom.InnerHTML(source))
	}

	if len(absent) > 0 {
		return missing("live page lacks %s", strings.Join(absent, ", "))
	}
	return nil
}

func (r *Reconciler) applyGrid(d *dom.Doc, frag *goquery.Document, _ *Trigger) error {
	source := dom.ByID(frag.Selection, GridContainerID)
	if source.Length() == 0 {
		return missing("fragment has no #%s", GridContainerID)
	}
	target := d.ByID(GridContainerID)
	if target.Length() == 0 {
		return missing("live page has no #%s", GridContainerID)
	}

	target.SetHtml(dom.InnerHTML(source))

	if r.config.Viewport != nil {
		r.config.Viewport.ScrollTo(ScrollRequest{
			TargetID: GridContainerID,
			Offset:   -(r.config.HeaderOffset + r.config.ScrollMargin),
			Smooth:   true,
		})
	}
	for _, hook := range r.config.GridHooks {
		hook(d)
	}
	return nil
}

// applyCount updates the count displays present in the fragment. The
// active filter badge is always written, falling back to "0".
func (r *Reconciler) applyCount(d *dom.Doc, frag *goquery.Document, _ *Trigger) error {
	found := 0
	var absent []string
	for _, id := range countIDs {
		source := dom.ByID(frag.Selection, id)
		if source.Length() == 0 {
			continue
		}
		found++
		target := d.ByID(id)
		if target.Length() == 0 {
			absent = append(absent, "#"+id)
			continue
		}
		target.SetHtml(dom.InnerHTML(source))
		target.RemoveClass(LoadingClass)
	}

	active := "0"
	if source := dom.ByID(frag.Selection, CountActiveID); source.Length() > 0 {
		active = dom.InnerHTML(source)
	}
	if target := d.ByID(CountActiveID); target.Length() > 0 {
		target.SetHtml(active)
	}

	d.Find(SpinnerSelector).AddClass(HiddenClass)

	if found == 0 {
		return missing("fragment has no product count")
	}
	if len(absent) > 0 {
		return missing("live page lacks %s", strings.Join(absent, ", "))
	}
	return nil
}
