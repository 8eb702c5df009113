package reconcile

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
)

// applyFacets patches facet controls by id. The server decides which
// facets exist: live facets missing from the fragment are removed, new
// ones are inserted next to their siblings. The trigger facet is left for
// applyTriggerCounts so its open state and focus survive.
func (r *Reconciler) applyFacets(d *dom.Doc, frag *goquery.Document, trigger *Trigger) error {
	if frag.Find(FacetFormsSelector).Length() == 0 {
		return missing("fragment has no facet forms")
	}

	fetched := frag.Find(FacetSelector)
	fetchedIDs := make(map[string]bool, fetched.Length())
	fetched.Each(func(_ int, s *goquery.Selection) {
		if id := s.AttrOr("id", ""); id != "" {
			fetchedIDs[id] = true
		}
	})

	d.Find(FacetSelector).Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id != "" && !fetchedIDs[id] {
			r.logger.Debug().Str("facet", id).Msg("Removing facet absent from fragment")
			s.Remove()
		}
	})

	var toRender []*goquery.Selection
	fetched.Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" || (trigger != nil && id == trigger.FacetID) {
			return
		}
		toRender = append(toRender, s)
	})

	for i, el := range toRender {
		id := el.AttrOr("id", "")

		if live := d.ByID(id); live.Length() > 0 {
			live.SetHtml(dom.InnerHTML(el))
			continue
		}

		markup := dom.OuterHTML(el)

		if i > 0 {
			prev := toRender[i-1]
			if el.AttrOr("class", "") == prev.AttrOr("class", "") {
				if prevLive := d.ByID(prev.AttrOr("id", "")); prevLive.Length() > 0 {
					prevLive.AfterHtml(markup)
					r.logger.Debug().Str("facet", id).Msg("Inserted facet after sibling")
					continue
				}
			}
		}

		parentID := el.Parent().AttrOr("id", "")
		liveParent := d.ByID(parentID)
		if liveParent.Length() == 0 {
			r.logger.Warn().Str("facet", id).Str("parent", parentID).Msg("No live parent for new facet")
			continue
		}
		if first := liveParent.Find(".js-filter").First(); first.Length() > 0 {
			first.BeforeHtml(markup)
		} else {
			liveParent.AppendHtml(markup)
		}
		r.logger.Debug().Str("facet", id).Str("parent", parentID).Msg("Inserted facet into parent")
	}

	return nil
}

// applyTriggerCounts refreshes the summary, header and item list of the
// facet that triggered the render, keeps "show more" items visible and
// returns focus to the control.
func (r *Reconciler) applyTriggerCounts(d *dom.Doc, frag *goquery.Document, trigger *Trigger) error {
	if trigger == nil || trigger.FacetID == "" {
		return errNotApplicable
	}

	source := frag.Find(FacetSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == trigger.FacetID
	}).First()
	if source.Length() == 0 {
		return errNotApplicable
	}

	target := d.ByID(trigger.FacetID)
	if target.Length() == 0 {
		return missing("trigger facet %q not in live page", trigger.FacetID)
	}

	replaceOuter(target, source, summarySelector)
	replaceOuter(target, source, headerSelector)

	if target.Find(showMoreExpanded).Length() > 0 {
		source.Find(wrapSelector).Find(hiddenItemSelector).Each(func(_ int, item *goquery.Selection) {
			replaceClass(item, HiddenClass, showMoreItemClass)
		})
	}
	replaceOuter(target, source, wrapSelector)
	replaceOuter(target, source, mobileListSelector)

	if trigger.TextInput {
		return nil
	}

	focusSelector := summarySelector
	if target.HasClass(mobileDetailsClass) {
		focusSelector = mobileCloseSelector
	}
	if el := target.Find(focusSelector).First(); el.Length() > 0 {
		d.Focus(el)
		r.logger.Debug().Str("facet", trigger.FacetID).Str("focus", focusSelector).Msg("Restored focus")
	}
	return nil
}

// replaceOuter swaps the first selector match in target for the one in source
// when both exist.
func replaceOuter(target, source *goquery.Selection, selector string) {
	t := target.Find(selector).First()
	s := source.Find(selector).First()
	if t.Length() == 0 || s.Length() == 0 {
		return
	}
	t.ReplaceWithHtml(dom.OuterHTML(s))
}

// replaceClass swaps one class token for another, keeping its position.
func replaceClass(s *goquery.Selection, from, to string) {
	classes := splitClasses(s.AttrOr("class", ""))
	for i, c := range classes {
		if c == from {
			classes[i] = to
		}
	}
	s.SetAttr("class", joinClasses(classes))
}
