package query

const (
	msgNoDocuments  = "No documents found."
	msgPageOverflow = "The number of pages you entered is greater than the number of existing pages."
)

type Pagination struct {
	Limit         int    `json:"limit"`
	TotalDocs     int64  `json:"totalDocs"`
	NumberOfPages int    `json:"numberOfPages"`
	CurrentPage   int    `json:"currentPage"`
	NextPage      *int   `json:"nextPage,omitempty"`
	PreviousPage  *int   `json:"previousPage,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Paginate builds the descriptor for a page of a result set of total rows.
// A page past the end is not an error; it carries an explanatory message.
func Paginate(page, limit int, total int64) Pagination {
	p := Pagination{
		Limit:       limit,
		TotalDocs:   total,
		CurrentPage: page,
	}

	if total == 0 {
		p.Message = msgNoDocuments
		return p
	}

	p.NumberOfPages = max(int((total+int64(limit)-1)/int64(limit)), 1)

	if page > p.NumberOfPages {
		p.Message = msgPageOverflow
		return p
	}

	if int64(page*limit) < total {
		next := page + 1
		p.NextPage = &next
	}
	if (page-1)*limit > 0 {
		prev := page - 1
		p.PreviousPage = &prev
	}

	return p
}
