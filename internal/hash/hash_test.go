package hash

import "testing"

func TestTruncatedSHA256(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "simple string", input: "hello world"},
		{name: "url", input: "https://example.my.salesforce.com/services/data/v60.0/query/?q=SELECT+Id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatedSHA256(tt.input)
			if len(got) != IDLength {
				t.Errorf("TruncatedSHA256(%q) length = %d, want %d", tt.input, len(got), IDLength)
			}
		})
	}
}

func TestTruncatedSHA256_Deterministic(t *testing.T) {
	if TruncatedSHA256("abc") != TruncatedSHA256("abc") {
		t.Error("expected identical hashes for identical input")
	}
}

func TestKey_SeparatesParts(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("expected different keys for different part boundaries")
	}
	if Key("token", "url") != Key("token", "url") {
		t.Error("expected identical keys for identical parts")
	}
}

func TestKey_DoesNotLeakParts(t *testing.T) {
	k := Key("00Dxx0000001gPL!secret-token", "https://example.com")
	if len(k) != IDLength {
		t.Errorf("Key length = %d, want %d", len(k), IDLength)
	}
}
