package i18n

import "testing"

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"":                    LocaleZH,
		"en-US,en;q=0.9":      LocaleEN,
		"zh-TW":               LocaleTW,
		"fr-FR, zh-CN;q=0.8":  LocaleZH,
		"de":                  LocaleZH,
		"zh-Hant-HK,zh;q=0.9": LocaleTW,
	}
	for raw, want := range cases {
		if got := NormalizeLocale(raw); got != want {
			t.Fatalf("NormalizeLocale(%q)=%s want %s", raw, got, want)
		}
	}
}

func TestTFallsBackToDefaultThenKey(t *testing.T) {
	messages[LocaleZH]["error.zh_only"] = "仅简体"
	defer delete(messages[LocaleZH], "error.zh_only")
	if got := T(LocaleTW, "error.zh_only"); got != "仅简体" {
		t.Fatalf("expected zh-CN fallback, got %s", got)
	}
	if got := T(LocaleEN, "error.no_such_key"); got != "error.no_such_key" {
		t.Fatalf("expected key fallback, got %s", got)
	}
	if got := Sprintf(LocaleEN, "error.password_too_short", 8); got != "Password must be at least 8 characters" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestLocalesShareKeys(t *testing.T) {
	for key := range messages[LocaleZH] {
		for _, locale := range []string{LocaleTW, LocaleEN} {
			if _, ok := messages[locale][key]; !ok {
				t.Fatalf("%s missing %s", locale, key)
			}
		}
	}
	if len(messages[LocaleTW]) != len(messages[LocaleZH]) || len(messages[LocaleEN]) != len(messages[LocaleZH]) {
		t.Fatalf("locale sizes differ")
	}
}
