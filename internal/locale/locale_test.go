package locale

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en-US", "en_US"},
		{"en_US", "en_US"},
		{"en_US.UTF-8", "en_US"},
		{"sr_RS@latin", "sr_RS"},
		{"EN", "en"},
		{"pt-br", "pt_BR"},
		{"zh-Hans-CN", "zh_CN"},
		{"es-419", "es_419"},
		{"fr", "fr"},
		{"", ""},
		{"  de-DE ", "de_DE"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"es_ES", "es"},
		{"en", "en"},
		{"es_419", "es"},
	}
	for _, tt := range tests {
		if got := Base(tt.in); got != tt.want {
			t.Errorf("Base(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBCP47(t *testing.T) {
	if got := BCP47("en_US"); got != "en-US" {
		t.Errorf("BCP47(en_US) = %q, want en-US", got)
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name     string
		override string
		detected []string
		err      error
		want     []string
	}{
		{
			name:     "detected tags then bases then default",
			detected: []string{"es-ES", "fr-FR"},
			want:     []string{"es_ES", "fr_FR", "es", "fr", "en_US"},
		},
		{
			name:     "override replaces detection",
			override: "de_DE",
			detected: []string{"es-ES"},
			want:     []string{"de_DE", "de", "en_US"},
		},
		{
			name:     "deduplicates",
			detected: []string{"en-US", "en"},
			want:     []string{"en_US", "en"},
		},
		{
			name: "detection failure still yields default",
			err:  errors.New("no dbus"),
			want: []string{"en_US"},
		},
		{
			name: "nothing detected",
			want: []string{"en_US"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detect := func() ([]string, error) { return tt.detected, tt.err }
			got := Candidates(tt.override, detect)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates() = %v, want %v", got, tt.want)
			}
		})
	}
}
