// Package testutil provides a mock storefront that renders a product
// listing and its sections the way the live theme does.
package testutil

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Default listing path and section id served by the mock storefront.
const (
	DefaultPath      = "/collections/all"
	DefaultSectionID = "template--main__product-grid"
)

// Product is one catalog entry.
type Product struct {
	Title     string
	Color     string
	Sizes     []string
	Price     float64
	Available bool
}

// DefaultCatalog returns the catalog most tests run against.
func DefaultCatalog() []Product {
	return []Product{
		{Title: "Red Shirt", Color: "Red", Sizes: []string{"S", "M"}, Price: 20, Available: true},
		{Title: "Blue Shirt", Color: "Blue", Sizes: []string{"M"}, Price: 30, Available: true},
		{Title: "Red Mug", Color: "Red", Price: 10, Available: true},
		{Title: "Green Hat", Color: "Green", Price: 15, Available: false},
	}
}

// Storefront is a mock storefront server.
type Storefront struct {
	server *httptest.Server

	mu        sync.RWMutex
	products  []Product
	sortForm  bool
	failWith  int
	delay     time.Duration
	requests  map[string]int
	total     int
	sectionID string
	path      string
}

// NewStorefront starts a storefront serving the default catalog.
func NewStorefront() *Storefront {
	sf := &Storefront{
		products:  DefaultCatalog(),
		requests:  make(map[string]int),
		sectionID: DefaultSectionID,
		path:      DefaultPath,
	}
	sf.server = httptest.NewServer(http.HandlerFunc(sf.handle))
	return sf
}

// URL returns the server origin.
func (sf *Storefront) URL() string {
	return sf.server.URL
}

// Path returns the listing path.
func (sf *Storefront) Path() string {
	return sf.path
}

// SectionID returns the id of the grid section.
func (sf *Storefront) SectionID() string {
	return sf.sectionID
}

// Close shuts down the server.
func (sf *Storefront) Close() {
	sf.server.Close()
}

// SetProducts replaces the catalog.
func (sf *Storefront) SetProducts(products []Product) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.products = products
}

// SetSortForm toggles the separate sort form next to the filter form.
func (sf *Storefront) SetSortForm(enabled bool) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.sortForm = enabled
}

// SetFailure makes every section request answer with status. Zero restores
// normal responses.
func (sf *Storefront) SetFailure(status int) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.failWith = status
}

// SetDelay delays every section response.
func (sf *Storefront) SetDelay(d time.Duration) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.delay = d
}

// Requests returns how often requestURI was requested.
func (sf *Storefront) Requests(requestURI string) int {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.requests[requestURI]
}

// TotalRequests returns the number of requests served.
func (sf *Storefront) TotalRequests() int {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.total
}

// Reset clears the request counters.
func (sf *Storefront) Reset() {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.requests = make(map[string]int)
	sf.total = 0
}

// Page renders the full listing page for rawQuery without touching the
// request counters.
func (sf *Storefront) Page(rawQuery string) (string, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", err
	}
	return sf.render("page", values)
}

func (sf *Storefront) handle(w http.ResponseWriter, r *http.Request) {
	sf.mu.Lock()
	sf.requests[r.URL.RequestURI()]++
	sf.total++
	failWith, delay := sf.failWith, sf.delay
	sf.mu.Unlock()

	if r.URL.Path != sf.path {
		http.NotFound(w, r)
		return
	}

	values := r.URL.Query()
	section := values.Get("section_id")

	name := "page"
	if section != "" {
		if delay > 0 {
			time.Sleep(delay)
		}
		if failWith != 0 {
			http.Error(w, http.StatusText(failWith), failWith)
			return
		}
		if section != sf.sectionID {
			http.NotFound(w, r)
			return
		}
		name = "section"
	}
	values.Del("section_id")

	body, err := sf.render(name, values)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

type facetValue struct {
	ID      string
	Value   string
	Count   int
	Checked bool
}

type activeFilter struct {
	Label string
	Href  string
}

type sortOption struct {
	Value    string
	Label    string
	Selected bool
}

type listing struct {
	SectionID string
	Path      string
	Colors    []facetValue
	Sizes     []facetValue
	InStock   facetValue
	PriceMin  string
	PriceMax  string
	SliderMax string
	Active    []activeFilter
	Products  []Product
	SortForm  bool
	Sorts     []sortOption
}

func (sf *Storefront) render(name string, values url.Values) (string, error) {
	sf.mu.RLock()
	products := append([]Product(nil), sf.products...)
	data := listing{SectionID: sf.sectionID, Path: sf.path, SortForm: sf.sortForm}
	sf.mu.RUnlock()

	var maxPrice float64
	for _, p := range products {
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
	}
	data.SliderMax = formatPrice(maxPrice)
	data.PriceMin = valueOr(values, "filter.v.price.gte", "0")
	data.PriceMax = valueOr(values, "filter.v.price.lte", data.SliderMax)

	data.Products = filterProducts(products, values)
	sortProducts(data.Products, values.Get("sort_by"))

	colors := values["filter.v.option.color"]
	sizes := values["filter.v.option.size"]
	for i, c := range distinct(products, func(p Product) []string { return []string{p.Color} }) {
		data.Colors = append(data.Colors, facetValue{
			ID:      fmt.Sprintf("Filter-color-%d", i+1),
			Value:   c,
			Count:   countWhere(data.Products, func(p Product) bool { return p.Color == c }),
			Checked: contains(colors, c),
		})
	}
	if countWhere(data.Products, func(p Product) bool { return len(p.Sizes) > 0 }) > 0 {
		for i, s := range distinct(products, func(p Product) []string { return p.Sizes }) {
			data.Sizes = append(data.Sizes, facetValue{
				ID:      fmt.Sprintf("Filter-size-%d", i+1),
				Value:   s,
				Count:   countWhere(data.Products, func(p Product) bool { return contains(p.Sizes, s) }),
				Checked: contains(sizes, s),
			})
		}
	}
	data.InStock = facetValue{
		ID:      "Filter-availability-1",
		Value:   "1",
		Count:   countWhere(data.Products, func(p Product) bool { return p.Available }),
		Checked: values.Get("filter.v.availability") == "1",
	}

	for _, name := range []string{"filter.v.option.color", "filter.v.option.size", "filter.v.availability"} {
		for _, v := range values[name] {
			label := v
			if name == "filter.v.availability" {
				label = "In stock"
			}
			data.Active = append(data.Active, activeFilter{
				Label: label,
				Href:  sf.path + queryWithout(values, name, v),
			})
		}
	}

	sortBy := values.Get("sort_by")
	for _, o := range []sortOption{
		{Value: "manual", Label: "Featured"},
		{Value: "price-ascending", Label: "Price, low to high"},
		{Value: "price-descending", Label: "Price, high to low"},
	} {
		o.Selected = o.Value == sortBy
		data.Sorts = append(data.Sorts, o)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func filterProducts(products []Product, values url.Values) []Product {
	colors := values["filter.v.option.color"]
	sizes := values["filter.v.option.size"]
	inStock := values.Get("filter.v.availability") == "1"
	gte, hasGte := priceBound(values, "filter.v.price.gte")
	lte, hasLte := priceBound(values, "filter.v.price.lte")

	var out []Product
	for _, p := range products {
		if len(colors) > 0 && !contains(colors, p.Color) {
			continue
		}
		if len(sizes) > 0 && !anyOf(p.Sizes, sizes) {
			continue
		}
		if inStock && !p.Available {
			continue
		}
		if hasGte && p.Price < gte {
			continue
		}
		if hasLte && p.Price > lte {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortProducts(products []Product, sortBy string) {
	switch sortBy {
	case "price-ascending":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case "price-descending":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	}
}

func priceBound(values url.Values, name string) (float64, bool) {
	raw := values.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

// queryWithout renders values minus one name/value pair, as a "?query"
// suffix or empty.
func queryWithout(values url.Values, name, value string) string {
	rest := url.Values{}
	for k, vs := range values {
		for _, v := range vs {
			if k == name && v == value {
				continue
			}
			rest.Add(k, v)
		}
	}
	if len(rest) == 0 {
		return ""
	}
	return "?" + rest.Encode()
}

func distinct(products []Product, fn func(Product) []string) []string {
	var out []string
	for _, p := range products {
		for _, v := range fn(p) {
			if !contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

func countWhere(products []Product, fn func(Product) bool) int {
	n := 0
	for _, p := range products {
		if fn(p) {
			n++
		}
	}
	return n
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func anyOf(have, want []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}

func valueOr(values url.Values, name, fallback string) string {
	if v := values.Get(name); v != "" {
		return v
	}
	return fallback
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

var templates = template.Must(template.New("storefront").Funcs(template.FuncMap{
	"plural": plural,
	"price":  formatPrice,
}).Parse(listingTemplates))
