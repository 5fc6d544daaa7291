package domain

// Page describes one slice of a paginated listing. Field names are part
// of the API contract and must not change.
type Page struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
	PrevPage   *int `json:"prev_page"`
	NextPage   *int `json:"next_page"`
	StartItem  int  `json:"start_item"`
	EndItem    int  `json:"end_item"`
}

// Paginate computes the slice bounds and page descriptor for a listing
// of totalItems. page is clamped into [1, totalPages]; totalPages is at
// least 1 even for an empty listing. Returned bounds satisfy
// 0 <= start <= end <= totalItems.
func Paginate(totalItems, page, perPage int) (start, end int, p Page) {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start = (page - 1) * perPage
	end = start + perPage
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	p = Page{
		Page:       page,
		PerPage:    perPage,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		StartItem:  0,
		EndItem:    end,
	}
	if totalItems > 0 {
		p.StartItem = start + 1
	}
	if p.HasPrev {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.HasNext {
		next := page + 1
		p.NextPage = &next
	}
	return start, end, p
}
