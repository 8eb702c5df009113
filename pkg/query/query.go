// Package query builds canonical filter query strings from storefront forms.
//
// A Query is an ordered multi-map: parameter order is the order in which
// fields appear in the form, and two queries describe the same page state
// iff their encoded forms are equal.
package query

import (
	"net/url"
	"strings"
)

// Param is a single name/value pair of a query.
type Param struct {
	Name  string
	Value string
}

// Query is an ordered list of parameters. Names may repeat.
type Query []Param

// Add appends a parameter and returns the extended query.
func (q Query) Add(name, value string) Query {
	return append(q, Param{Name: name, Value: value})
}

// Get returns the first value stored under name.
func (q Query) Get(name string) (string, bool) {
	for _, p := range q {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether any parameter is named name.
func (q Query) Has(name string) bool {
	_, ok := q.Get(name)
	return ok
}

// Values returns every value stored under name, in order.
func (q Query) Values(name string) []string {
	var values []string
	for _, p := range q {
		if p.Name == name {
			values = append(values, p.Value)
		}
	}
	return values
}

// Del returns a copy of q without any parameter named name.
func (q Query) Del(name string) Query {
	out := make(Query, 0, len(q))
	for _, p := range q {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

// Encode serializes the query as application/x-www-form-urlencoded text,
// preserving parameter order.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (q Query) String() string {
	return q.Encode()
}

// Equal reports whether both queries serialize identically.
func (q Query) Equal(other Query) bool {
	return q.Encode() == other.Encode()
}

// Parse decodes a raw query string without reordering its parameters.
// A leading '?' is ignored. Segments that fail to unescape are kept verbatim.
func Parse(raw string) Query {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil
	}
	var q Query
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		name, value, _ := strings.Cut(segment, "=")
		q = append(q, Param{Name: unescape(name), Value: unescape(value)})
	}
	return q
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// FromHref returns the query portion of a link: everything after the first
// '?', or the empty string when the link carries none.
func FromHref(href string) string {
	i := strings.IndexByte(href, '?')
	if i < 0 {
		return ""
	}
	raw := href[i+1:]
	if j := strings.IndexByte(raw, '#'); j >= 0 {
		raw = raw[:j]
	}
	return raw
}

// Combine joins individually built query strings with '&', keeping the
// order in which the forms were traversed. Empty parts are skipped.
func Combine(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "&")
}
