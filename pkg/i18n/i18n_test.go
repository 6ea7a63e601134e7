package i18n

import "testing"

func TestPairResolve(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		p    Pair
		lang string
		want string
	}{
		{"cn requested present", Pair{CN: "你好", EN: "hello"}, "cn", "你好"},
		{"en requested present", Pair{CN: "你好", EN: "hello"}, "en", "hello"},
		{"en requested missing falls back to cn", Pair{CN: "你好"}, "en", "你好"},
		{"cn requested missing falls back to en", Pair{EN: "hello"}, "cn", "hello"},
		{"unknown locale falls back to cn behaviour", Pair{CN: "你好", EN: "hello"}, "fr", "你好"},
		{"empty lang falls back to cn behaviour", Pair{CN: "你好", EN: "hello"}, "", "你好"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Resolve(tt.lang); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.lang, got, tt.want)
			}
		})
	}
}

func TestPairIsEmpty(t *testing.T) {
	t.Parallel()
	if !(Pair{}).IsEmpty() {
		t.Error("zero-value Pair should be empty")
	}
	if (Pair{CN: "x"}).IsEmpty() {
		t.Error("Pair with CN set should not be empty")
	}
}
