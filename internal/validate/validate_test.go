package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"trims whitespace", "  North Park  ", "North Park", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"at limit", strings.Repeat("a", 64), strings.Repeat("a", 64), false},
		{"over limit", strings.Repeat("a", 65), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Name(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNameTooLongCarriesLength(t *testing.T) {
	_, err := Name(strings.Repeat("x", 70))
	var tooLong *NameTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("error = %v, want NameTooLongError", err)
	}
	if tooLong.Len != 70 {
		t.Errorf("Len = %d, want 70", tooLong.Len)
	}
}

func TestGroupNameLowercases(t *testing.T) {
	got, err := GroupName("Boys U12")
	if err != nil {
		t.Fatalf("GroupName() error = %v", err)
	}
	if got != "boys u12" {
		t.Errorf("GroupName() = %q, want %q", got, "boys u12")
	}
}

func TestProfileName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"default", false},
		{"Spring 2026", false},
		{"travel_league-v2", false},
		{"", true},
		{"bad/name", true},
		{strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		if _, err := ProfileName(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ProfileName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
