package types

// Filter - параметры списка из строки запроса:
// ?search=Run&sort[created_at]=desc&filter[status]=ACTIVE&filter[branch_id]=1,2&limit=10
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}

// ForCount - тот же фильтр без сортировки и пагинации, для COUNT(*).
func (f Filter) ForCount() Filter {
	f.WithPagination = false
	f.Sort = nil
	return f
}

type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}
