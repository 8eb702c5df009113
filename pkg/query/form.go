package query

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FormFields collects the successful controls of a <form> in document order,
// the same set a browser would submit.
func FormFields(form *goquery.Selection) Query {
	var fields Query
	form.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" || isDisabled(s) {
			return
		}

		switch goquery.NodeName(s) {
		case "input":
			value, include := inputValue(s)
			if include {
				fields = fields.Add(name, value)
			}
		case "select":
			for _, v := range selectValues(s) {
				fields = fields.Add(name, v)
			}
		case "textarea":
			fields = fields.Add(name, s.Text())
		}
	})
	return fields
}

func isDisabled(s *goquery.Selection) bool {
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	return s.Closest("fieldset[disabled]").Length() > 0
}

func inputValue(s *goquery.Selection) (string, bool) {
	typ := strings.ToLower(s.AttrOr("type", "text"))
	switch typ {
	case "submit", "button", "reset", "image", "file":
		return "", false
	case "checkbox", "radio":
		if _, checked := s.Attr("checked"); !checked {
			return "", false
		}
		return s.AttrOr("value", "on"), true
	default:
		return s.AttrOr("value", ""), true
	}
}

func selectValues(s *goquery.Selection) []string {
	options := s.Find("option")
	var values []string
	options.Each(func(_ int, o *goquery.Selection) {
		if _, selected := o.Attr("selected"); selected && !isDisabled(o) {
			values = append(values, optionValue(o))
		}
	})
	if len(values) == 0 && options.Length() > 0 {
		if _, multiple := s.Attr("multiple"); !multiple {
			values = append(values, optionValue(options.First()))
		}
	}
	if _, multiple := s.Attr("multiple"); !multiple && len(values) > 1 {
		values = values[len(values)-1:]
	}
	return values
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.Join(strings.Fields(o.Text()), " ")
}
