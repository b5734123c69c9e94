package photoprism

import (
	"strings"
	"testing"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want []string // substrings the normalized DSN must contain
	}{
		{
			name: "bare DSN gains parseTime",
			dsn:  "photoprism:secret@tcp(db:3306)/photoprism",
			want: []string{"parseTime=true", "photoprism:secret@tcp(db:3306)/photoprism"},
		},
		{
			name: "existing parameters survive",
			dsn:  "root@tcp(localhost:3306)/photoprism?charset=utf8mb4",
			want: []string{"parseTime=true", "charset=utf8mb4"},
		},
		{
			name: "parseTime=false is overridden",
			dsn:  "root@tcp(localhost:3306)/photoprism?parseTime=false",
			want: []string{"parseTime=true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeDSN(tt.dsn)
			if err != nil {
				t.Fatalf("normalizeDSN(%q) returned error: %v", tt.dsn, err)
			}
			for _, sub := range tt.want {
				if !strings.Contains(got, sub) {
					t.Errorf("normalizeDSN(%q) = %q, missing %q", tt.dsn, got, sub)
				}
			}
			if strings.Contains(got, "parseTime=false") {
				t.Errorf("normalizeDSN(%q) = %q, parseTime still disabled", tt.dsn, got)
			}
		})
	}
}

func TestNormalizeDSNInvalid(t *testing.T) {
	// No slash separating the address from the database name.
	if _, err := normalizeDSN("just-a-hostname"); err == nil {
		t.Error("expected an error for a malformed DSN")
	}
}

func TestNewMariaDBEmptyDSN(t *testing.T) {
	if _, err := NewMariaDB(""); err == nil {
		t.Error("expected an error for an empty DSN")
	}
}
