// Package console is the admin back-office client: it fetches inquiries and
// content from the API, derives the filtered, searched and sorted views the
// admin works with, and keeps the "new since last visit" feed.
package console

import (
	"slices"
	"strings"

	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter selects inquiries by visibility status.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterRead   Filter = "read"
	FilterUnread Filter = "unread"
)

// SortOrder orders the inquiry list.
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortOldest SortOrder = "oldest"
	SortName   SortOrder = "name"
)

// ParseFilter accepts the filter names case-insensitively. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterRead, FilterUnread:
		return f, nil
	}
	return "", errors.Newf("unknown filter %q (want all, read or unread)", s)
}

// ParseSort accepts the sort names case-insensitively. Empty means latest.
func ParseSort(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortLatest, nil
	case SortLatest, SortOldest, SortName:
		return o, nil
	}
	return "", errors.Newf("unknown sort %q (want latest, oldest or name)", s)
}

// FilterInquiries returns the inquiries in the status bucket f.
func FilterInquiries(items []domain.Inquiry, f Filter) []domain.Inquiry {
	out := make([]domain.Inquiry, 0, len(items))
	for _, inq := range items {
		switch {
		case f == FilterAll,
			f == FilterRead && inq.Status == domain.StatusRead,
			f == FilterUnread && inq.Status != domain.StatusRead:
			out = append(out, inq)
		}
	}
	return out
}

// Search returns the inquiries whose full name, email or message contains
// query, ignoring case. A blank query matches everything.
func Search(items []domain.Inquiry, query string) []domain.Inquiry {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(items)
	}
	out := make([]domain.Inquiry, 0, len(items))
	for _, inq := range items {
		for _, field := range []string{inq.FullName(), inq.Email, inq.Message} {
			if strings.Contains(fold.String(field), q) {
				out = append(out, inq)
				break
			}
		}
	}
	return out
}

// Sort returns a sorted copy of items. Names are compared with the collation
// rules of lang.
func Sort(items []domain.Inquiry, order SortOrder, lang language.Tag) []domain.Inquiry {
	out := slices.Clone(items)
	newestFirst := func(a, b domain.Inquiry) int { return b.CreatedAt.Compare(a.CreatedAt) }

	switch order {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b domain.Inquiry) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case SortName:
		col := collate.New(lang)
		slices.SortStableFunc(out, func(a, b domain.Inquiry) int {
			if c := col.CompareString(a.FullName(), b.FullName()); c != 0 {
				return c
			}
			return newestFirst(a, b)
		})
	default:
		slices.SortStableFunc(out, newestFirst)
	}
	return out
}

// View is the admin's current list settings.
type View struct {
	Filter Filter
	Query  string
	Sort   SortOrder
	Lang   language.Tag
}

// Apply filters, searches and sorts items.
func (v View) Apply(items []domain.Inquiry) []domain.Inquiry {
	f := v.Filter
	if f == "" {
		f = FilterAll
	}
	return Sort(Search(FilterInquiries(items, f), v.Query), v.Sort, v.Lang)
}
