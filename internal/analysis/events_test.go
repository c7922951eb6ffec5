package analysis

import (
	"reflect"
	"testing"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/archiveapi"
)

func TestEventLinks(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "Flyer: https://www.facebook.com/events/12345/?ref=share.", want: []string{"https://www.facebook.com/events/12345/?ref=share"}},
		{in: "m: http://m.facebook.com/events/987 and again http://m.facebook.com/events/987", want: []string{"http://m.facebook.com/events/987"}},
		{in: "short https://fb.me/e/AbC12x", want: []string{"https://fb.me/e/AbC12x"}},
		{in: "page https://facebook.com/thevenue/events/555", want: []string{"https://facebook.com/thevenue/events/555"}},
		{in: "https://www.facebook.com/thou and https://archive.org/details/x"},
		{in: ""},
	}
	for _, tc := range cases {
		if got := EventLinks(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("EventLinks(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFindEventsScansDescriptionAndFacebookFields(t *testing.T) {
	records := []archiveapi.Record{
		{
			Identifier:  "a",
			Description: "Great show https://www.facebook.com/events/1",
			FB:          "https://fb.me/e/xyz",
			Facebook:    "https://www.facebook.com/events/1",
		},
		{Identifier: "b", Description: "no links"},
	}
	matches := FindEvents(records)
	if len(matches) != 1 {
		t.Fatalf("matches = %+v", matches)
	}
	m := matches[0]
	if m.Identifier != "a" {
		t.Fatalf("identifier = %q", m.Identifier)
	}
	if want := []string{"description", "fb", "facebook"}; !reflect.DeepEqual(m.Fields, want) {
		t.Fatalf("fields = %v, want %v", m.Fields, want)
	}
	if want := []string{"https://www.facebook.com/events/1", "https://fb.me/e/xyz"}; !reflect.DeepEqual(m.Links, want) {
		t.Fatalf("links = %v, want %v", m.Links, want)
	}
}
