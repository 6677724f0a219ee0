package aggregate

import "github.com/kuzowebsite/ider-surver/model"

const (
	PerPage       = 10
	MobilePerPage = 5
)

type Page struct {
	Items   []model.Submission `json:"items"`
	Page    int                `json:"page"`
	Pages   int                `json:"pages"`
	PerPage int                `json:"perPage"`
	Total   int                `json:"total"`
}

func PerPageFor(mobile bool) int {
	if mobile {
		return MobilePerPage
	}
	return PerPage
}

// Paginate returns the 1-based page of submissions, clamping page into
// range. There is always at least one page.
func Paginate(submissions []model.Submission, page, perPage int) Page {
	if perPage <= 0 {
		perPage = PerPage
	}
	pages := (len(submissions) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > len(submissions) {
		end = len(submissions)
	}

	return Page{
		Items:   append([]model.Submission{}, submissions[start:end]...),
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   len(submissions),
	}
}
