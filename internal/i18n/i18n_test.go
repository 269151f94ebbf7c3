package i18n

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestInit(t *testing.T) {
	if err := Init(nil, ""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if TranslationCount("en") == 0 {
		t.Error("Expected English translations to be loaded")
	}
	if TranslationCount("id") == 0 {
		t.Error("Expected Indonesian translations to be loaded")
	}
	if got := Default(); got != "en" {
		t.Errorf("Default() = %q, want en", got)
	}
}

func TestInitDefaultLanguage(t *testing.T) {
	if err := Init(nil, "ID"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = Init(nil, "") })

	if got := Default(); got != "id" {
		t.Errorf("Default() = %q, want id", got)
	}
	if got := T("de", "date.today"); got != "Hari ini" {
		t.Errorf("T(de, date.today) = %q, want Indonesian fallback", got)
	}
	if got := MatchLanguage("de"); got != "id" {
		t.Errorf("MatchLanguage(de) = %q, want id", got)
	}

	if err := Init(nil, "fr"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := Default(); got != "en" {
		t.Errorf("unsupported default: Default() = %q, want en", got)
	}
}

func TestT(t *testing.T) {
	if err := Init(nil, ""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tests := []struct {
		lang     string
		key      string
		args     []any
		expected string
	}{
		{"en", "empty.games", nil, "No games yet"},
		{"id", "empty.games", nil, "Belum ada game"},
		{"id", "empty.games_no_match", nil, "Tidak ada game ditemukan"},
		{"id", "date.unavailable", nil, "Tanggal tidak tersedia"},
		{"en", "date.days_ago", []any{3}, "3 days ago"},
		{"id", "date.days_ago", []any{3}, "3 hari yang lalu"},
		{"id", "msg.password_short", []any{6}, "Password minimal 6 karakter!"},
		{"id", "category.other", nil, "Lainnya"},
		// Fallback to English for unknown language
		{"de", "btn.play", nil, "Play"},
		// Return key if not found
		{"en", "nonexistent.key", nil, "nonexistent.key"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"_"+tt.key, func(t *testing.T) {
			result := T(tt.lang, tt.key, tt.args...)
			if result != tt.expected {
				t.Errorf("T(%q, %q, %v) = %q, want %q", tt.lang, tt.key, tt.args, result, tt.expected)
			}
		})
	}
}

func TestHas(t *testing.T) {
	if err := Init(nil, ""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !Has("id", "auth.wrong_password") {
		t.Error("Has(id, auth.wrong_password) = false")
	}
	if Has("en", "auth.nope") {
		t.Error("Has(en, auth.nope) = true")
	}
}

func TestMatchLanguage(t *testing.T) {
	if err := Init(nil, ""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"id", "id"},
		{"en-US", "en"},
		{"id-ID", "id"},
		{"de", "en"}, // Falls back to default
		{"", "en"},   // Falls back to default
		{"!!", "en"}, // Falls back to default
		{"en-US, id;q=0.9, de;q=0.8", "en"},
		{"id-ID, en;q=0.9", "id"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := MatchLanguage(tt.input)
			if result != tt.expected {
				t.Errorf("MatchLanguage(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		lang     string
		expected bool
	}{
		{"en", true},
		{"id", true},
		{"EN", true}, // Case insensitive
		{"ID", true},
		{"de", false},
		{"ru", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			result := IsSupported(tt.lang)
			if result != tt.expected {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.lang, result, tt.expected)
			}
		})
	}
}

func TestTranslationFilesNoDuplicates(t *testing.T) {
	for _, lang := range SupportedLanguages {
		t.Run(lang, func(t *testing.T) {
			path := fmt.Sprintf("locales/%s/messages.json", lang)
			data, err := localesFS.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read %s: %v", path, err)
			}

			var msgFile MessageFile
			if err := json.Unmarshal(data, &msgFile); err != nil {
				t.Fatalf("Failed to parse %s: %v", path, err)
			}

			seen := make(map[string]int)
			var duplicates []string
			for i, msg := range msgFile.Messages {
				if firstIdx, exists := seen[msg.ID]; exists {
					duplicates = append(duplicates, fmt.Sprintf("%q (lines %d and %d)", msg.ID, firstIdx+1, i+1))
				} else {
					seen[msg.ID] = i
				}
			}

			if len(duplicates) > 0 {
				t.Errorf("Found %d duplicate translation IDs in %s:\n  %v", len(duplicates), lang, duplicates)
			}
		})
	}
}

func TestTranslationFilesEqualCount(t *testing.T) {
	counts := make(map[string]int)
	keys := make(map[string]map[string]bool)

	for _, lang := range SupportedLanguages {
		path := fmt.Sprintf("locales/%s/messages.json", lang)
		data, err := localesFS.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", path, err)
		}

		var msgFile MessageFile
		if err := json.Unmarshal(data, &msgFile); err != nil {
			t.Fatalf("Failed to parse %s: %v", path, err)
		}

		// Count unique keys (in case there are duplicates)
		keys[lang] = make(map[string]bool)
		for _, msg := range msgFile.Messages {
			keys[lang][msg.ID] = true
		}
		counts[lang] = len(keys[lang])
	}

	// Compare all languages to the first one
	if len(SupportedLanguages) < 2 {
		return
	}

	refLang := SupportedLanguages[0]
	refCount := counts[refLang]

	for _, lang := range SupportedLanguages[1:] {
		if counts[lang] != refCount {
			t.Errorf("Translation count mismatch: %s has %d, %s has %d",
				refLang, refCount, lang, counts[lang])

			// Find missing keys
			missingInLang := findMissingKeys(keys[refLang], keys[lang])
			missingInRef := findMissingKeys(keys[lang], keys[refLang])

			if len(missingInLang) > 0 {
				t.Errorf("Keys in %s but missing in %s: %v", refLang, lang, missingInLang)
			}
			if len(missingInRef) > 0 {
				t.Errorf("Keys in %s but missing in %s: %v", lang, refLang, missingInRef)
			}
		}
	}
}

func findMissingKeys(a, b map[string]bool) []string {
	var missing []string
	for key := range a {
		if !b[key] {
			missing = append(missing, key)
		}
	}
	return missing
}
