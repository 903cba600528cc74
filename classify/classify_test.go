package classify

import "testing"

func TestClassify_NoURL(t *testing.T) {
	inputs := []string{
		"",
		"the moon landing was faked",
		"check out example.com without a scheme",
		"ftp://files.example.com/archive",
	}
	for _, in := range inputs {
		c := Classify(in)
		if c.Kind != NoURL {
			t.Errorf("Classify(%q).Kind = %v, want NoURL", in, c.Kind)
		}
		if c.URL != "" {
			t.Errorf("Classify(%q).URL = %q, want empty", in, c.URL)
		}
	}
}

func TestClassify_PublicIndexable(t *testing.T) {
	inputs := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"is this real? https://www.reddit.com/r/news/comments/abc123/",
		"https://news.ycombinator.com/item?id=1",
		"https://www.bbc.com/news/world-123",
		"https://www.reuters.com/world/some-story/",
		"https://apnews.com/article/xyz",
		"https://www.cdc.gov/flu/index.html",
		"https://www.tiktok.com/@user/video/728001",
	}
	for _, in := range inputs {
		c := Classify(in)
		if c.Kind != PublicIndexable {
			t.Errorf("Classify(%q).Kind = %v, want PublicIndexable", in, c.Kind)
		}
		if c.URL == "" {
			t.Errorf("Classify(%q).URL is empty", in)
		}
	}
}

func TestClassify_BrowserRequired(t *testing.T) {
	tests := []struct {
		input string
		gated bool
	}{
		{"https://www.facebook.com/story.php?id=1", true},
		{"https://www.instagram.com/p/Cxyz/", true},
		{"https://x.com/user/status/17280", true},
		{"https://www.nytimes.com/2025/08/01/world/story.html", true},
		{"https://www.tiktok.com/@user/photo/728001", true},
		{"https://example.com/some-article", false},
		{"https://blog.unknown-site.io/post/42", false},
	}
	for _, tt := range tests {
		c := Classify(tt.input)
		if c.Kind != BrowserRequired {
			t.Errorf("Classify(%q).Kind = %v, want BrowserRequired", tt.input, c.Kind)
		}
		if c.Gated != tt.gated {
			t.Errorf("Classify(%q).Gated = %v, want %v", tt.input, c.Gated, tt.gated)
		}
	}
}

func TestClassify_FirstURLWins(t *testing.T) {
	c := Classify("compare https://example.com/a and https://www.youtube.com/b")
	if c.URL != "https://example.com/a" {
		t.Errorf("URL = %q, want first match", c.URL)
	}
	if c.Kind != BrowserRequired {
		t.Errorf("Kind = %v, want BrowserRequired (classified by first URL only)", c.Kind)
	}
}

func TestClassify_URLEmbeddedInText(t *testing.T) {
	c := Classify("breaking: https://www.wsj.com/articles/abc is this true?")
	if c.Kind != BrowserRequired || !c.Gated {
		t.Errorf("got kind=%v gated=%v, want gated BrowserRequired", c.Kind, c.Gated)
	}
	if c.URL != "https://www.wsj.com/articles/abc" {
		t.Errorf("URL = %q", c.URL)
	}
}
