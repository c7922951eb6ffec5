package archiveapi

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{link: "https://youtu.be/dQw4w9WgXcQ?t=10", want: "dQw4w9WgXcQ"},
		{link: "youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{link: "https://m.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{link: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{link: "https://vimeo.com/12345", want: ""},
		{link: "https://www.youtube.com/watch?v=short", want: ""},
		{link: "", want: ""},
	}
	for _, tc := range cases {
		got, ok := ExtractVideoID(tc.link)
		if got != tc.want || ok != (tc.want != "") {
			t.Fatalf("ExtractVideoID(%q) = %q,%v want %q", tc.link, got, ok, tc.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("unexpected watch url %q", got)
	}
}
