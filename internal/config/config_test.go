package config

import "testing"

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset uses fallback", "", 10},
		{"valid", "25", 25},
		{"non-numeric uses fallback", "lots", 10},
		{"zero uses fallback", "0", 10},
		{"negative uses fallback", "-4", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_MAX_CONNS", tt.value)
			if got := getEnvInt("DB_MAX_CONNS", 10); got != tt.want {
				t.Errorf("getEnvInt(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadPoolSettings(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "20")
	t.Setenv("DB_CONNECT_RETRIES", "3")

	cfg := Load()
	if cfg.DBMaxConns != 20 {
		t.Errorf("DBMaxConns = %d, want 20", cfg.DBMaxConns)
	}
	if cfg.DBMinConns != 2 {
		t.Errorf("DBMinConns = %d, want default 2", cfg.DBMinConns)
	}
	if cfg.DBConnectRetries != 3 {
		t.Errorf("DBConnectRetries = %d, want 3", cfg.DBConnectRetries)
	}
}

func TestParseTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single pair", "s3cret:anna", map[string]string{"s3cret": "anna"}},
		{"multiple pairs", "a:one, b:two", map[string]string{"a": "one", "b": "two"}},
		{"bare token", "s3cret", map[string]string{"s3cret": "moderator"}},
		{"trailing comma", "a:one,", map[string]string{"a": "one"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTokens(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseTokens(%q) has %d entries, want %d", tt.raw, len(got), len(tt.want))
			}
			for token, name := range tt.want {
				if got[token] != name {
					t.Errorf("parseTokens(%q)[%q] = %q, want %q", tt.raw, token, got[token], name)
				}
			}
		})
	}
}
