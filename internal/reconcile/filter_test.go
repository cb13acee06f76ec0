package reconcile_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/nexus-library/internal/catalog"
	"github.com/joe/nexus-library/internal/reconcile"
)

func TestTitleFilter_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		title   string
		want    bool
	}{
		{"empty pattern matches all", "", "Hades", true},
		{"substring glob", "*zelda*", "The Legend of Zelda: BotW", true},
		{"case insensitive pattern", "HADES*", "Hades II", true},
		{"no match", "*portal*", "Half-Life 2", false},
		{"single character", "hades?ii", "Hades II", true},
		{"character class", "[hp]*", "Portal", true},
		{"invalid pattern matches nothing", "[invalid", "[invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			filter := reconcile.NewTitleFilter(tt.pattern)
			g.Expect(filter.Matches(&catalog.GameItem{Title: tt.title})).To(Equal(tt.want))
		})
	}
}

func TestTitleFilter_Filter(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	items := []*catalog.GameItem{{ID: "1", Title: "Portal"}, {ID: "2", Title: "Portal 2"}, {ID: "3", Title: "Hades"}}

	got := reconcile.NewTitleFilter("portal*").Filter(items)
	g.Expect(got).To(HaveLen(2))
	g.Expect(got[1].ID).To(Equal("2"))

	g.Expect(reconcile.NewTitleFilter("[bad").Valid()).To(BeFalse())
	g.Expect(reconcile.NewTitleFilter("").Valid()).To(BeTrue())
}
