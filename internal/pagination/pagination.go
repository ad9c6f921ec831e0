// Package pagination computes the page metadata and navigation links
// returned with every collection response.
package pagination

import (
	"net/url"
	"strconv"
)

// Params is a normalised page request.  Page is 1-based.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps a raw page request.  A missing or non-positive
// per_page falls back to def, and values above max are capped.
func Normalize(page, perPage, def, max int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = def
	}
	if max > 0 && perPage > max {
		perPage = max
	}
	return Params{Page: page, PerPage: perPage}
}

// Offset returns the number of rows to skip for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta describes where a page sits inside the full result set.  From and
// To are 1-based item positions and are null for an empty page.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	From        *int  `json:"from"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	To          *int  `json:"to"`
	Total       int64 `json:"total"`
}

// NewMeta builds page metadata for a page holding count items out of
// total.  LastPage is ceil(total/perPage) and never less than 1.
func NewMeta(p Params, total int64, count int) Meta {
	m := Meta{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Total:       total,
		LastPage:    LastPage(total, p.PerPage),
	}
	if count > 0 {
		from := p.Offset() + 1
		to := p.Offset() + count
		m.From = &from
		m.To = &to
	}
	return m
}

// LastPage returns ceil(total/perPage), with a floor of 1.
func LastPage(total int64, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	pp := int64(perPage)
	return int((total + pp - 1) / pp)
}

// Links holds absolute URLs for neighbouring pages; Prev and Next are
// null at the edges.
type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// NewLinks derives navigation links from the request URL, preserving
// every query parameter except page.
func NewLinks(base *url.URL, m Meta) Links {
	at := func(page int) string {
		u := *base
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
		return u.String()
	}
	l := Links{First: at(1), Last: at(m.LastPage)}
	if m.CurrentPage > 1 {
		prev := at(min(m.CurrentPage-1, m.LastPage))
		l.Prev = &prev
	}
	if m.CurrentPage < m.LastPage {
		next := at(m.CurrentPage + 1)
		l.Next = &next
	}
	return l
}
