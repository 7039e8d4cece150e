package models

import (
	"encoding/json"
	"testing"
)

func TestProductIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ProductID
	}{
		{`1`, 1},
		{`"42"`, 42},
		{`"abc"`, 0},
		{`null`, 0},
		{`1.5`, 0},
		{`true`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ProductID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.want {
				t.Errorf("got %d, want %d", id, tt.want)
			}
		})
	}
}

func TestCartLineUnmarshal(t *testing.T) {
	var lines []CartLine
	body := `[{"id":1,"qty":2},{"id":"3","qty":"4"},{"id":5},7]`
	if err := json.Unmarshal([]byte(body), &lines); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	want := []CartLine{{1, 2}, {3, 4}, {5, 0}, {0, 0}}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: got %+v, want %+v", i, lines[i], w)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Demo@Shop.COM "); got != "demo@shop.com" {
		t.Errorf("got %q", got)
	}
}
