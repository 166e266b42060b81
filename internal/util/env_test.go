package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"yes uppercase", "YES", false, true},
		{"on with spaces", " on ", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"no", "no", true, false},
		{"off", "off", true, false},
		{"unset keeps default true", "", true, true},
		{"unset keeps default false", "", false, false},
		{"garbage keeps default", "maybe", true, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv("STRIDE_TEST_BOOL", c.value)
			if got := ParseBoolEnv("STRIDE_TEST_BOOL", c.defaultValue); got != c.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", c.value, c.defaultValue, got, c.want)
			}
		})
	}
}
