package util

import (
	"github.com/ValentinKolb/dTriple/lib/model"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line %q longer than %d", line, Wrap)
		}
	}
	if WrapString("short text") != "short text" {
		t.Errorf("Expected short text to stay on one line")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Value
		wantErr bool
	}{
		{"e:42", model.Entity(42), false},
		{"s:Alex", model.StringLiteral("Alex"), false},
		{"s:a:b", model.StringLiteral("a:b"), false},
		{"s:", model.StringLiteral(""), false},
		{"i:-24601", model.IntegerLiteral(-24601), false},
		{"f:1.5", model.FloatLiteral(1.5), false},
		{"Alex", nil, true},
		{"x:1", nil, true},
		{"i:abc", nil, true},
		{"f:", nil, true},
		{"e:-1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseValue(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseEntity(t *testing.T) {
	for _, in := range []string{"7", "e:7", "<7>"} {
		if e, err := ParseEntity(in); err != nil || e != 7 {
			t.Errorf("ParseEntity(%q) = %v, %v", in, e, err)
		}
	}
	if _, err := ParseEntity("seven"); err == nil {
		t.Errorf("Expected error")
	}
}
