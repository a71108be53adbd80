package booking

import (
	"testing"
	"time"
)

func TestTruncateRecent(t *testing.T) {
	list := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name  string
		limit int
		want  []int
	}{
		{"under limit", 10, []int{1, 2, 3, 4, 5}},
		{"at limit", 5, []int{1, 2, 3, 4, 5}},
		{"over limit keeps newest", 2, []int{4, 5}},
		{"zero disables", 0, []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRecent(list, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRecord_String(t *testing.T) {
	r := Record{"userid": "u-1", "count": 3, "empty": nil}

	if got := r.String("userid"); got != "u-1" {
		t.Errorf("String(userid) = %q, want u-1", got)
	}
	if got := r.String("count"); got != "3" {
		t.Errorf("String(count) = %q, want 3", got)
	}
	if got := r.String("empty"); got != "" {
		t.Errorf("String(empty) = %q, want empty", got)
	}
	if got := r.String("missing"); got != "" {
		t.Errorf("String(missing) = %q, want empty", got)
	}
}

func TestRecord_Clone(t *testing.T) {
	r := Record{"a": "1"}
	c := r.Clone()
	c["a"] = "2"

	if r["a"] != "1" {
		t.Error("Clone should not share the underlying map")
	}
	if Record(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestPrincipal_NeedsRefresh(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		p    *Principal
		want bool
	}{
		{"nil", nil, false},
		{"no refresh token", &Principal{ExpiresAt: now}, false},
		{"no expiry", &Principal{RefreshToken: "r"}, false},
		{"far from expiry", &Principal{RefreshToken: "r", ExpiresAt: now.Add(time.Hour)}, false},
		{"within a minute", &Principal{RefreshToken: "r", ExpiresAt: now.Add(30 * time.Second)}, true},
		{"expired", &Principal{RefreshToken: "r", ExpiresAt: now.Add(-time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.NeedsRefresh(now); got != tt.want {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
