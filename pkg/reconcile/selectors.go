package reconcile

// Well-known ids and selectors of the storefront listing markup.
const (
	FacetSelector      = "#FacetFiltersForm .js-filter, #FacetFiltersFormMobile .js-filter, #FacetFiltersPillsForm .js-filter"
	FacetFormsSelector = "#FacetFiltersForm, #FacetFiltersFormMobile, #FacetFiltersPillsForm"

	GridContainerID = "ProductGridContainer"
	GridCollection  = ".collection"
	ProductGridID   = "product-grid"

	CountID        = "ProductCount"
	CountDesktopID = "ProductCountDesktop"
	CountMobileID  = "ProductCountMobile"
	CountActiveID  = "ProductCountActive"

	SpinnerSelector    = ".facets-container .loading__spinner, facet-filters-form .loading__spinner"
	RemovePillSelector = ".js-facet-remove"

	LoadingClass  = "loading"
	HiddenClass   = "hidden"
	DisabledClass = "disabled"

	summarySelector     = ".facets__summary"
	headerSelector      = ".facets__header"
	wrapSelector        = ".facets-wrap"
	showMoreExpanded    = "show-more-button .label-show-more.hidden"
	hiddenItemSelector  = ".facets__item.hidden"
	showMoreItemClass   = "show-more-item"
	mobileListSelector  = ".mobile-facets__list"
	mobileDetailsClass  = "mobile-facets__details"
	mobileCloseSelector = ".mobile-facets__close-button"
)

// Count display ids that carry a loading indicator.
var countIDs = []string{CountID, CountDesktopID, CountMobileID}

// Active-filter sub-regions, each replaced independently.
var activeFilterSelectors = []string{".active-facets-mobile", ".active-facets-desktop"}

// Ancillary elements replaced wholesale when the fragment has them.
var ancillarySelectors = []string{".mobile-facets__open", ".mobile-facets__count", ".sorting"}
