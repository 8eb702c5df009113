package reconcile

import (
	"strings"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
)

// ShowLoading marks the grid, the count displays and the facet spinners as
// loading.
func ShowLoading(d *dom.Doc) {
	d.Find(SpinnerSelector).RemoveClass(HiddenClass)
	d.ByID(GridContainerID).Find(GridCollection).First().AddClass(LoadingClass)
	for _, id := range countIDs {
		d.ByID(id).AddClass(LoadingClass)
	}
}

// ClearLoading removes every loading indicator ShowLoading set.
func ClearLoading(d *dom.Doc) {
	d.Find(SpinnerSelector).AddClass(HiddenClass)
	d.ByID(GridContainerID).Find(GridCollection).RemoveClass(LoadingClass)
	for _, id := range countIDs {
		d.ByID(id).RemoveClass(LoadingClass)
	}
}

// SetRemovePillsDisabled toggles the disabled state of every "remove
// filter" pill.
func SetRemovePillsDisabled(d *dom.Doc, disabled bool) {
	pills := d.Find(RemovePillSelector)
	if disabled {
		pills.AddClass(DisabledClass)
	} else {
		pills.RemoveClass(DisabledClass)
	}
}

func splitClasses(attr string) []string {
	return strings.Fields(attr)
}

func joinClasses(classes []string) string {
	return strings.Join(classes, " ")
}
