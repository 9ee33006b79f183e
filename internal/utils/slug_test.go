package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugBase(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Spill in Aisle 3", "spill-in-aisle-3"},
		{"  Broken   ladder!! ", "broken-ladder"},
		{"Gefährliche Säure", "gefahrliche-saure"},
		{"!!!", "incident"},
		{"", "incident"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SlugBase(tt.title))
		})
	}
}

func TestNextFreeSlug(t *testing.T) {
	tests := []struct {
		name  string
		taken []string
		want  string
	}{
		{"nothing taken", nil, "spill"},
		{"unrelated slugs", []string{"spill-over", "spillage"}, "spill"},
		{"base taken", []string{"spill"}, "spill-1"},
		{"sequence", []string{"spill", "spill-1", "spill-2"}, "spill-3"},
		{"gap reused", []string{"spill", "spill-2"}, "spill-1"},
		{"non numeric suffix ignored", []string{"spill", "spill-over"}, "spill-1"},
		{"suffix without base", []string{"spill-1"}, "spill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextFreeSlug("spill", tt.taken))
		})
	}
}

func TestNextFreeSlug_ReservedRoutes(t *testing.T) {
	for _, base := range []string{"notifications", "new-incident", "my-incidents", "manager-dashboard", "home", "users", "metrics", "api", "ws"} {
		t.Run(base, func(t *testing.T) {
			assert.True(t, IsReservedSlug(base))
			assert.Equal(t, base+"-1", NextFreeSlug(base, nil))
			assert.Equal(t, base+"-2", NextFreeSlug(base, []string{base + "-1"}))
		})
	}

	assert.False(t, IsReservedSlug("my-stuff"))
	assert.Equal(t, "my-stuff", NextFreeSlug("my-stuff", nil))
}
