package bot

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"latin with punctuation", "MyChannel!!", "MyChannel"},
		{"ukrainian letters kept", "Новини Києва", "НовиниКиєва"},
		{"underscore and digits kept", "kyiv_news_24", "kyiv_news_24"},
		{"ukrainian specific letters", "Їжак і Євген", "ЇжакіЄвген"},
		{"only punctuation", "!!!...", ""},
		{"empty", "", ""},
		{"emoji stripped", "news📺channel", "newschannel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeName(tt.in); got != tt.want {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidLink(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://t.me/mychannel", true},
		{"https://t.me/a", true},
		{"https://t.me/", false},
		{"http://t.me/mychannel", false},
		{"t.me/mychannel", false},
		{"https://telegram.me/mychannel", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := validLink(tt.in); got != tt.want {
			t.Errorf("validLink(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
