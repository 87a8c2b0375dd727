package cities

import "testing"

func TestDisplay(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"київ", "Київ"},
		{"кривий_ріг", "Кривий Ріг"},
		{"івано-франківськ", "Івано-Франківськ"},
		{"unknown_city", "Unknown City"},
	}
	for _, tt := range tests {
		if got := Display(tt.key); got != tt.want {
			t.Errorf("Display(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestHashtag(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"київ", "#Київ"},
		{"кривий_ріг", "#КривийРіг"},
		{"прип'ять", "#Припять"},
		// Unknown keys get a derived hashtag without spaces
		{"нове_місто", "#НовеМісто"},
	}
	for _, tt := range tests {
		if got := Hashtag(tt.key); got != tt.want {
			t.Errorf("Hashtag(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) == 0 {
		t.Fatal("Expected a non-empty city list")
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Expected sorted keys, got %q before %q", keys[i-1], keys[i])
		}
	}
	if !Known("київ") {
		t.Error("Expected київ to be a known city")
	}
	if Known("атлантида") {
		t.Error("Expected атлантида to be unknown")
	}
}
