package model

import (
	"fmt"
	"strings"
	"time"
)

// Status says whether an item was lost or found.
type Status string

// Item statuses.
const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusLost, StatusFound}

// ParseStatus returns the status named by s.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusLost, StatusFound:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Category is one of the fixed item categories.
type Category string

// Item categories.
const (
	CategoryElectronics Category = "Electronics"
	CategoryBooks       Category = "Books"
	CategoryClothing    Category = "Clothing"
	CategoryAccessories Category = "Accessories"
	CategoryKeys        Category = "Keys"
	CategoryBags        Category = "Bags"
	CategoryDocuments   Category = "Documents"
	CategorySports      Category = "Sports Equipment"
	CategoryOther       Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryBooks,
	CategoryClothing,
	CategoryAccessories,
	CategoryKeys,
	CategoryBags,
	CategoryDocuments,
	CategorySports,
	CategoryOther,
}

// ParseCategory returns the category named by s. Matching is exact.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// DateLayout is the format of Item.DateLostFound.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// Item is a lost or found posting.
type Item struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	Status        Status    `json:"status"`
	Location      string    `json:"location,omitempty"`
	DateLostFound string    `json:"date_lost_found"`
	ImageFilename string    `json:"image_filename,omitempty"`
	IsResolved    bool      `json:"is_resolved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        int64     `json:"user_id"`

	// Joined fields (not always populated).
	OwnerUsername string `json:"owner_username,omitempty"`
}

// ImageURL is the path the stored image is served under, or a placeholder.
func (i *Item) ImageURL() string {
	if i.ImageFilename == "" {
		return "/static/no-image.svg"
	}
	return "/uploads/" + i.ImageFilename
}

// ThumbnailURL is the path of the listing thumbnail, or a placeholder.
func (i *Item) ThumbnailURL() string {
	if i.ImageFilename == "" {
		return "/static/no-image.svg"
	}
	return "/uploads/thumbs/" + i.ImageFilename + ".jpg"
}
