package client

import (
	"net/url"
	"strconv"

	"walletline/internal/core"
)

// TransactionFilters narrows a transaction listing. Zero-valued fields
// are left out of the query entirely so the backend never sees empty
// filters.
type TransactionFilters struct {
	Type       core.TransactionType
	Start      string // inclusive date, "2006-01-02"
	End        string // inclusive date, "2006-01-02"
	WalletID   string
	CategoryID string
	Search     string
	// Sort is one of transaction_date, -transaction_date, amount, -amount.
	Sort    string
	PerPage int
	Page    int
}

// Values encodes the filters as upstream query parameters.
func (f TransactionFilters) Values() url.Values {
	q := url.Values{}
	setDefined(q, "filter[type]", string(f.Type))
	setDefined(q, "filter[date_between][start]", f.Start)
	setDefined(q, "filter[date_between][end]", f.End)
	setDefined(q, "filter[wallet_id]", f.WalletID)
	setDefined(q, "filter[category_id]", f.CategoryID)
	setDefined(q, "filter[search]", f.Search)
	setDefined(q, "sort", f.Sort)
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// WithPage returns a copy of the filters pointing at a specific page.
func (f TransactionFilters) WithPage(page int) TransactionFilters {
	f.Page = page
	return f
}

func setDefined(q url.Values, key, value string) {
	if value == "" {
		return
	}
	q.Set(key, value)
}
