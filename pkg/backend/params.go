package backend

import (
	"net/url"
	"strconv"
)

// Pagination selects a page of a list endpoint.
type Pagination struct {
	Page    int
	PerPage int
}

// Filter narrows a list endpoint. Empty fields contribute nothing.
type Filter struct {
	Search       string
	Organization string
	Status       string
}

// ListOptions is the recognized configuration for list endpoints.
type ListOptions struct {
	Pagination *Pagination
	Sort       string
	Filter     *Filter
}

// Values builds the query parameters for a list call. Each present
// option maps to exactly one query key; absent options are omitted.
func (o ListOptions) Values() url.Values {
	query := url.Values{}

	if o.Pagination != nil {
		if o.Pagination.Page > 0 {
			query.Set("page", strconv.Itoa(o.Pagination.Page))
		}
		if o.Pagination.PerPage > 0 {
			query.Set("per_page", strconv.Itoa(o.Pagination.PerPage))
		}
	}

	if o.Sort != "" {
		query.Set("sort", o.Sort)
	}

	if o.Filter != nil {
		if o.Filter.Search != "" {
			query.Set("filter[search]", o.Filter.Search)
		}
		if o.Filter.Organization != "" {
			query.Set("filter[organization]", o.Filter.Organization)
		}
		if o.Filter.Status != "" {
			query.Set("filter[status]", o.Filter.Status)
		}
	}

	return query
}
