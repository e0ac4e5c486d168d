package util

import "testing"

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("GM_TEST_NUM", "12.5")
	t.Setenv("GM_TEST_BAD", "abc")
	t.Setenv("GM_TEST_BOOL", "yes")
	t.Setenv("GM_TEST_EMPTY", "  ")

	if got := GetEnvNumeric("GM_TEST_NUM", 1); got != 12.5 {
		t.Errorf("GetEnvNumeric = %v, want 12.5", got)
	}
	if got := GetEnvInt("GM_TEST_NUM", 1); got != 12 {
		t.Errorf("GetEnvInt = %v, want 12", got)
	}
	if got := GetEnvInt("GM_TEST_BAD", 7); got != 7 {
		t.Errorf("GetEnvInt with bad value = %v, want default 7", got)
	}
	if got := GetEnvInt("GM_TEST_MISSING", 3); got != 3 {
		t.Errorf("GetEnvInt missing = %v, want 3", got)
	}
	if !GetEnvBool("GM_TEST_BOOL", false) {
		t.Errorf("GetEnvBool(yes) = false")
	}
	if GetEnvBool("GM_TEST_BAD", false) {
		t.Errorf("GetEnvBool(abc) should fall back to default")
	}
	if got := GetEnvString("GM_TEST_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("GetEnvString blank = %q, want fallback", got)
	}
	if got := GetEnv("GM_TEST_MISSING"); got != "" {
		t.Errorf("GetEnv missing = %q", got)
	}
}
