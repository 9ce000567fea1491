package utils

import (
	"strings"
	"testing"
)

const albumPageHTML = `<html><head>
	<meta property="og:title" content="Herbst &amp;amp; Winter">
	<meta property="og:url" content="https://bunkr.si/a/Lktg9Keq">
	<title>Herbst | Bunkr</title>
</head><body>
	<header>
		<span class="font-semibold">2 files (648.76 MB)</span>
	</header>
	<div class="grid-images_box mb-2">
		<a href="/f/first"><img src="/thumbs/first.png"></a>
		<p>first.mp4</p>
		<p>371.27 MB</p>
		<p>20:17:38 21/09/2023</p>
	</div>
	<div class="grid-images_box mb-2">
		<a href="https://bunkr.si/i/second"><img src="/thumbs/second.png"></a>
		<p>second.jpg</p>
		<p>277.49 MB</p>
		<p>20:17:33 21/09/2023</p>
	</div>
</body></html>`

const mediaPageHTML = `<html><head>
	<meta property="og:title" content="clip.mp4">
	<title>clip.mp4 | Bunkr</title>
</head><body>
	<a href="https://get.bunkrr.su/file/12345678">Download</a>
</body></html>`

func TestPageDocument_MetaProperty(t *testing.T) {
	page, err := ParsePage(strings.NewReader(albumPageHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := page.MetaProperty("og:url"); got != "https://bunkr.si/a/Lktg9Keq" {
		t.Errorf("expected og:url content, got %q", got)
	}
	if got := page.MetaProperty("og:missing"); got != "" {
		t.Errorf("expected empty string for missing property, got %q", got)
	}
}

func TestPageDocument_OpenGraphTitle(t *testing.T) {
	page, err := ParsePage(strings.NewReader(albumPageHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The page double-escapes entities in album titles.
	if got := page.OpenGraphTitle(); got != "Herbst & Winter" {
		t.Errorf("expected double-unescaped title, got %q", got)
	}
}

func TestPageDocument_Title(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "site_suffix_stripped",
			html:     `<html><head><title>clip.mp4 | Bunkr</title></head></html>`,
			expected: "clip.mp4",
		},
		{
			name:     "no_suffix",
			html:     `<html><head><title>clip.mp4</title></head></html>`,
			expected: "clip.mp4",
		},
		{
			name:     "no_title",
			html:     `<html><head></head></html>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParsePage(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := page.Title(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPageDocument_AlbumSize(t *testing.T) {
	page, err := ParsePage(strings.NewReader(albumPageHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := page.AlbumSize(); got != "648.76 MB" {
		t.Errorf("expected album size %q, got %q", "648.76 MB", got)
	}

	empty, _ := ParsePage(strings.NewReader(`<html><body></body></html>`))
	if got := empty.AlbumSize(); got != "" {
		t.Errorf("expected empty size for page without header, got %q", got)
	}
}

func TestPageDocument_FileID(t *testing.T) {
	page, err := ParsePage(strings.NewReader(mediaPageHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := page.FileID("https://get.bunkrr.su"); got != "12345678" {
		t.Errorf("expected file id %q, got %q", "12345678", got)
	}

	// The anchor must be under the expected origin.
	if got := page.FileID("https://other.example"); got != "" {
		t.Errorf("expected empty id for mismatched origin, got %q", got)
	}
}

func TestPageDocument_ItemBlocks(t *testing.T) {
	page, err := ParsePage(strings.NewReader(albumPageHTML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocks := page.ItemBlocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 item blocks, got %d", len(blocks))
	}

	if blocks[0].Href != "/f/first" {
		t.Errorf("expected relative href, got %q", blocks[0].Href)
	}
	if blocks[1].Href != "https://bunkr.si/i/second" {
		t.Errorf("expected absolute href, got %q", blocks[1].Href)
	}

	wantFields := []string{"first.mp4", "371.27 MB", "20:17:38 21/09/2023"}
	if len(blocks[0].Fields) != len(wantFields) {
		t.Fatalf("expected %d fields, got %v", len(wantFields), blocks[0].Fields)
	}
	for i, want := range wantFields {
		if blocks[0].Fields[i] != want {
			t.Errorf("field %d: expected %q, got %q", i, want, blocks[0].Fields[i])
		}
	}
}
