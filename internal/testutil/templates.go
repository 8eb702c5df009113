package testutil

const listingTemplates = `
{{define "page"}}<!doctype html>
<html><head><title>Catalog</title></head>
<body>
<header class="header">Shop</header>
<main id="MainContent">{{template "section" .}}</main>
</body></html>{{end}}

{{define "section"}}<div id="shopify-section-{{.SectionID}}" class="shopify-section">
<div class="facets-wrapper">
<facet-filters-form class="facets-container">
  <form id="FacetFiltersForm" class="facets__form">
    <details id="Facet-color" class="js-filter facets__disclosure">
      <summary class="facets__summary">Color</summary>
      <div class="facets__header">{{len .Active}} selected</div>
      <ul class="facets-wrap">
        {{range .Colors}}<li class="facets__item"><input type="checkbox" id="{{.ID}}" name="filter.v.option.color" value="{{.Value}}"{{if .Checked}} checked{{end}}><label for="{{.ID}}">{{.Value}} ({{.Count}})</label></li>
        {{end}}
      </ul>
    </details>
    {{if .Sizes}}<details id="Facet-size" class="js-filter facets__disclosure">
      <summary class="facets__summary">Size</summary>
      <ul class="facets-wrap">
        {{range .Sizes}}<li class="facets__item"><input type="checkbox" id="{{.ID}}" name="filter.v.option.size" value="{{.Value}}"{{if .Checked}} checked{{end}}><label for="{{.ID}}">{{.Value}} ({{.Count}})</label></li>
        {{end}}
      </ul>
    </details>{{end}}
    <details id="Facet-availability" class="js-filter facets__disclosure">
      <summary class="facets__summary">Availability</summary>
      <ul class="facets-wrap">
        <li class="facets__item"><input type="checkbox" id="{{.InStock.ID}}" name="filter.v.availability" value="1"{{if .InStock.Checked}} checked{{end}}><label for="{{.InStock.ID}}">In stock ({{.InStock.Count}})</label></li>
      </ul>
    </details>
    <details id="Facet-price" class="js-filter facets__disclosure">
      <summary class="facets__summary">Price</summary>
      <price-range class="facets__price">
        <div class="price-slider-range" data-max="{{.SliderMax}}"></div>
        <input type="number" name="filter.v.price.gte" value="{{.PriceMin}}">
        <input type="number" name="filter.v.price.lte" value="{{.PriceMax}}">
      </price-range>
    </details>
  </form>
  <div class="loading__spinner hidden"></div>
</facet-filters-form>
{{if .SortForm}}<facet-filters-form class="facets-container">
  <form id="FacetSortForm" class="facets__form">
    <div class="sorting">
      <select name="sort_by">
        {{range .Sorts}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
        {{end}}
      </select>
    </div>
  </form>
</facet-filters-form>{{end}}
<menu-drawer class="mobile-facets__wrapper">
  <span class="mobile-facets__open">Filter{{if .Active}} ({{len .Active}}){{end}}</span>
  <facet-filters-form>
    <form id="FacetFiltersFormMobile" class="mobile-facets">
      <details id="Mobile-color" class="js-filter mobile-facets__details">
        <summary class="facets__summary">Color</summary>
        <button type="button" class="mobile-facets__close-button">Apply</button>
        <ul class="mobile-facets__list">
          {{range .Colors}}<li class="mobile-facets__item"><input type="checkbox" id="Mobile-{{.ID}}" name="filter.v.option.color" value="{{.Value}}"{{if .Checked}} checked{{end}}><label for="Mobile-{{.ID}}">{{.Value}} ({{.Count}})</label></li>
          {{end}}
        </ul>
      </details>
      <details id="Mobile-availability" class="js-filter mobile-facets__details">
        <summary class="facets__summary">Availability</summary>
        <button type="button" class="mobile-facets__close-button">Apply</button>
        <ul class="mobile-facets__list">
          <li class="mobile-facets__item"><input type="checkbox" id="Mobile-{{.InStock.ID}}" name="filter.v.availability" value="1"{{if .InStock.Checked}} checked{{end}}><label for="Mobile-{{.InStock.ID}}">In stock ({{.InStock.Count}})</label></li>
        </ul>
      </details>
    </form>
  </facet-filters-form>
  <span class="mobile-facets__count">{{plural (len .Products) "product"}}</span>
</menu-drawer>
<facet-filters-form>
  <form id="FacetFiltersPillsForm">
    <div class="active-facets active-facets-desktop">
      {{range .Active}}<facet-remove><a href="{{.Href}}" class="active-facets__button js-facet-remove">{{.Label}}</a></facet-remove>
      {{end}}
    </div>
  </form>
</facet-filters-form>
<div class="active-facets-mobile">
  {{range .Active}}<facet-remove><a href="{{.Href}}" class="active-facets__button-mobile js-facet-remove">{{.Label}}</a></facet-remove>
  {{end}}
</div>
<span id="ProductCount" class="product-count">{{plural (len .Products) "product"}}</span>
<span id="ProductCountDesktop" class="product-count">{{plural (len .Products) "product"}}</span>
<span id="ProductCountMobile" class="product-count">{{plural (len .Products) "product"}}</span>
<span id="ProductCountActive" class="bubble">{{len .Active}}</span>
</div>
<div class="view-mode">
  <button type="button" class="view-mode__button" data-view-mode="3">3</button>
  <button type="button" class="view-mode__button" data-view-mode="4">4</button>
  <button type="button" class="view-mode__button-mobile" data-view-mode="1">1</button>
  <button type="button" class="view-mode__button-mobile" data-view-mode="2">2</button>
</div>
<div id="ProductGridContainer">
  <div class="collection">
    <ul id="product-grid" data-id="{{.SectionID}}" class="grid product-grid grid-cols-2 lg:grid-cols-3">
      {{range $i, $p := .Products}}<li class="grid__item scroll-trigger animate--slide-in" data-cascade style="--animation-order: {{$i}};"><span class="card__heading">{{$p.Title}}</span> <span class="price">${{price $p.Price}}</span></li>
      {{end}}
    </ul>
  </div>
</div>
</div>{{end}}
`
