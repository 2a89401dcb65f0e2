package catalog

import (
	"context"
	"math"
	"strings"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// FilterAll selects every status or category.
const FilterAll = "all"

// maxPage keeps the row offset of any page within int.
const maxPage = math.MaxInt/PageSize + 1

// BrowseFilter is the board query. Unknown status and category values mean
// FilterAll.
type BrowseFilter struct {
	Status   string
	Category string
	Query    string
	Page     int
}

// normalize resolves the filter into its canonical form and the matching
// store filter.
func (f BrowseFilter) normalize() (BrowseFilter, store.ItemFilter) {
	var sf store.ItemFilter

	if st, err := model.ParseStatus(f.Status); err == nil {
		sf.Status = st
	} else {
		f.Status = FilterAll
	}
	if c, err := model.ParseCategory(f.Category); err == nil {
		sf.Category = c
	} else {
		f.Category = FilterAll
	}

	f.Query = strings.TrimSpace(f.Query)
	sf.Query = f.Query

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > maxPage {
		f.Page = maxPage
	}
	sf.Limit = PageSize
	sf.Offset = (f.Page - 1) * PageSize
	return f, sf
}

// Page is one page of the board.
type Page struct {
	Items  []model.Item
	Filter BrowseFilter
	Page   int
	Pages  int
	Total  int
}

// HasPrev reports whether there is a page before this one.
func (p *Page) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether there is a page after this one.
func (p *Page) HasNext() bool { return p.Page < p.Pages }

// PrevPage is the number of the previous page.
func (p *Page) PrevPage() int { return p.Page - 1 }

// NextPage is the number of the next page.
func (p *Page) NextPage() int { return p.Page + 1 }

// Browse returns one page of unresolved items matching f. A page past the
// end is empty.
func (s *Service) Browse(ctx context.Context, f BrowseFilter) (*Page, error) {
	f, sf := f.normalize()

	total, err := store.CountItems(ctx, s.DB, sf)
	if err != nil {
		return nil, apperror.NewInternal("counting items", err)
	}

	items, err := store.ListItems(ctx, s.DB, sf)
	if err != nil {
		return nil, apperror.NewInternal("browsing items", err)
	}

	return &Page{
		Items:  items,
		Filter: f,
		Page:   f.Page,
		Pages:  (total + PageSize - 1) / PageSize,
		Total:  total,
	}, nil
}
