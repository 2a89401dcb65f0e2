package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"lost", "found"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	// Only the two lowercase values are accepted.
	for _, s := range []string{"", "all", "Lost", "stolen", "resolved"} {
		_, err := ParseStatus(s)
		assert.Error(t, err, s)
	}
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("Sports Equipment")
	require.NoError(t, err)
	assert.Equal(t, CategorySports, got)

	for _, s := range []string{"", "all", "bags", "Weapons"} {
		_, err := ParseCategory(s)
		assert.Error(t, err, s)
	}
	assert.Len(t, Categories, 9)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	for _, s := range []string{"", "01/03/2024", "2024-13-01", "2024-02-30", "yesterday"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestItemImageURLs(t *testing.T) {
	item := &Item{}
	assert.Equal(t, "/static/no-image.svg", item.ImageURL())
	assert.Equal(t, "/static/no-image.svg", item.ThumbnailURL())

	item.ImageFilename = "3_20240301_101500_bag.png"
	assert.Equal(t, "/uploads/3_20240301_101500_bag.png", item.ImageURL())
	assert.Equal(t, "/uploads/thumbs/3_20240301_101500_bag.png.jpg", item.ThumbnailURL())
}
