package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")

	t.Setenv("RELAYCTL_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when RELAYCTL_DARK_MODE=1")
	}

	t.Setenv("RELAYCTL_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when RELAYCTL_DARK_MODE is unset")
	}
}

func TestDetectThemeColorFGBG(t *testing.T) {
	t.Setenv("RELAYCTL_DARK_MODE", "")

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme for white background")
	}
}

func TestThemeByName(t *testing.T) {
	if !ThemeByName("dark").IsDark {
		t.Fatalf("expected dark theme by name")
	}
	if ThemeByName("light").IsDark {
		t.Fatalf("expected light theme by name")
	}
}
