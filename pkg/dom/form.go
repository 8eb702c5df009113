package dom

import (
	"github.com/PuerkitoBio/goquery"
)

// Field helpers mutate form controls the way a shopper would. Callers hold
// the page through Page.Do.

// SetChecked checks or unchecks the checkbox or radio named name with value.
// Checking a radio unchecks its siblings. It reports whether a control matched.
func SetChecked(form *goquery.Selection, name, value string, checked bool) bool {
	found := false
	controls(form, "input", name).Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("value", "on") != value {
			if checked && s.AttrOr("type", "") == "radio" {
				s.RemoveAttr("checked")
			}
			return
		}
		found = true
		if checked {
			s.SetAttr("checked", "checked")
		} else {
			s.RemoveAttr("checked")
		}
	})
	return found
}

// SetValue sets the value of the text-like input named name.
func SetValue(form *goquery.Selection, name, value string) bool {
	s := controls(form, "input", name).First()
	if s.Length() == 0 {
		return false
	}
	s.SetAttr("value", value)
	return true
}

// SelectOption selects the option with value in the select named name.
func SelectOption(form *goquery.Selection, name, value string) bool {
	sel := controls(form, "select", name).First()
	if sel.Length() == 0 {
		return false
	}
	found := false
	sel.Find("option").Each(func(_ int, o *goquery.Selection) {
		if o.AttrOr("value", o.Text()) == value {
			o.SetAttr("selected", "selected")
			found = true
			return
		}
		o.RemoveAttr("selected")
	})
	return found
}

func controls(form *goquery.Selection, tag, name string) *goquery.Selection {
	return form.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("name", "") == name
	})
}
