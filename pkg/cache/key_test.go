package cache

import (
	"testing"
)

func TestKey_URL(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "empty query keeps separator",
			key:  Key{Path: "/collections/all", SectionID: "template--1__product-grid"},
			want: "/collections/all?section_id=template--1__product-grid&",
		},
		{
			name: "query appended verbatim",
			key: Key{
				Path:      "/collections/shoes",
				SectionID: "main",
				Query:     "filter.v.option.color=Red&sort_by=price-ascending",
			},
			want: "/collections/shoes?section_id=main&filter.v.option.color=Red&sort_by=price-ascending",
		},
		{
			name: "leading question mark dropped",
			key:  Key{Path: "/search", SectionID: "main", Query: "?q=hat"},
			want: "/search?section_id=main&q=hat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.URL(); got != tt.want {
				t.Errorf("Key.URL() = %q, want %q", got, tt.want)
			}
			if tt.key.String() != tt.key.URL() {
				t.Error("Key.String() differs from Key.URL()")
			}
		})
	}
}

func TestKey_DistinctQueriesDistinctURLs(t *testing.T) {
	a := Key{Path: "/c", SectionID: "s", Query: "a=1&b=2"}
	b := Key{Path: "/c", SectionID: "s", Query: "b=2&a=1"}

	if a.URL() == b.URL() {
		t.Error("differently ordered queries must map to different cache URLs")
	}
}
