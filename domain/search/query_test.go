package search

import (
	"testing"

	"github.com/fixhound/fixhound/domain/issue"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{"absent defaults", 0, 20},
		{"negative defaults", -5, 20},
		{"in range passes through", 7, 7},
		{"minimum", 1, 1},
		{"maximum", 100, 100},
		{"above maximum capped", 500, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := NewQuery("printer crashes", WithLimit(tc.limit))
			assert.Equal(t, tc.want, q.EffectiveLimit())
		})
	}
}

func TestLimitOr(t *testing.T) {
	// An absent limit resolves to the caller's default; clamping still
	// applies to both the default and explicit values.
	assert.Equal(t, 50, NewQuery("q").LimitOr(50))
	assert.Equal(t, 7, NewQuery("q", WithLimit(7)).LimitOr(50))
	assert.Equal(t, DefaultLimit, NewQuery("q").LimitOr(0))
	assert.Equal(t, MaxLimit, NewQuery("q").LimitOr(5000))
	assert.Equal(t, MaxLimit, NewQuery("q", WithLimit(5000)).LimitOr(50))
}

func TestQueryTextTrimmed(t *testing.T) {
	q := NewQuery("  blue screen \n")
	assert.Equal(t, "blue screen", q.Text())

	assert.Empty(t, NewQuery("   ").Text())
}

func TestQueryFilters(t *testing.T) {
	q := NewQuery("q", WithSeverity(issue.SeverityCritical), WithApplicationID("app-9"))

	f := q.Filters()
	assert.Equal(t, issue.SeverityCritical, f.Severity())
	assert.Equal(t, "app-9", f.ApplicationID())

	empty := NewQuery("q").Filters()
	assert.Empty(t, empty.Severity())
	assert.Empty(t, empty.ApplicationID())
}
