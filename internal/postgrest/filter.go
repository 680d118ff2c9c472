package postgrest

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/suspect-registry-api/internal/models"
)

// window holds the fixed, non-column parameters of a request
type window struct {
	Select     string `url:"select,omitempty"`
	Order      string `url:"order,omitempty"`
	Limit      int    `url:"limit,omitempty"`
	Offset     int    `url:"offset,omitempty"`
	OnConflict string `url:"on_conflict,omitempty"`
}

// Filter builds a PostgREST query string: column filters plus select,
// order and paging
type Filter struct {
	columns url.Values
	window  window
	orders  []string
}

// Where starts an empty filter
func Where() *Filter {
	return &Filter{columns: url.Values{}}
}

// Eq adds col=eq.value
func (f *Filter) Eq(col, value string) *Filter {
	f.columns.Add(col, "eq."+value)
	return f
}

// In adds col=in.(v1,v2,...)
func (f *Filter) In(col string, values []string) *Filter {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteListValue(v)
	}
	f.columns.Add(col, "in.("+strings.Join(quoted, ",")+")")
	return f
}

// Select sets the returned columns, including embedded relations
func (f *Filter) Select(cols string) *Filter {
	f.window.Select = cols
	return f
}

// OrderBy appends an ordering term
func (f *Filter) OrderBy(col string, ascending bool) *Filter {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	f.orders = append(f.orders, col+"."+dir)
	return f
}

// Limit caps the number of rows returned
func (f *Filter) Limit(n int) *Filter {
	f.window.Limit = n
	return f
}

// Page applies limit and offset for a listing page
func (f *Filter) Page(p models.Page) *Filter {
	f.window.Limit = p.Size
	f.window.Offset = p.Offset()
	return f
}

// Encode returns the query string without a leading "?"
func (f *Filter) Encode() string {
	if f == nil {
		return ""
	}
	w := f.window
	w.Order = strings.Join(f.orders, ",")
	values, err := query.Values(w)
	if err != nil {
		// window only holds strings and ints
		panic(err)
	}
	for col, vs := range f.columns {
		for _, v := range vs {
			values.Add(col, v)
		}
	}
	return values.Encode()
}

func (f *Filter) clone() *Filter {
	c := &Filter{columns: url.Values{}, window: f.window, orders: append([]string(nil), f.orders...)}
	for k, vs := range f.columns {
		c.columns[k] = append([]string(nil), vs...)
	}
	return c
}

// quoteListValue double-quotes values that would break an in.() list
func quoteListValue(v string) string {
	if !strings.ContainsAny(v, `,()"\ `) {
		return v
	}
	return strconv.Quote(v)
}
