package ecwid

import (
	"encoding/json"
	"strconv"
)

// Order is the subset of an Ecwid order the sync reads. Optional fields are
// pointers so a missing key is distinguishable from a zero value.
type Order struct {
	OrderNumber *json.Number `json:"orderNumber"`
	CreateDate  *string      `json:"createDate"`
	Items       []LineItem   `json:"items"`
}

// Number returns the order number as a positive integer.
func (o Order) Number() (int64, bool) {
	if o.OrderNumber == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(o.OrderNumber.String(), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

type LineItem struct {
	Name            *string  `json:"name"`
	SelectedOptions []Option `json:"selectedOptions"`
}

type Option struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// OrdersPage is one page of the orders search endpoint.
type OrdersPage struct {
	Total  int     `json:"total"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
	Items  []Order `json:"items"`
}

// ListParams selects one page of orders.
type ListParams struct {
	Offset      int
	Limit       int
	CreatedFrom string
	SortBy      string
	SortOrder   string
}
