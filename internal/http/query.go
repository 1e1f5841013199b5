package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/document"
)

// Find query parameters:
//
//	eq.<path>=v      textual equality; "null" matches null or missing fields
//	ref.<path>=hex   reference equality
//	min.<path>=n     numeric lower bound, inclusive
//	max.<path>=n     numeric upper bound, inclusive
//	q=term&in=a,b    case-insensitive substring search over fields a and b
//	sort=[-]path     order, "-" for descending
//	limit, skip      paging
func parseFindQuery(values url.Values) (documents.Filter, documents.FindOptions, error) {
	var (
		filter documents.Filter
		opts   documents.FindOptions
	)

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		val := vals[0]

		op, path, hasPath := strings.Cut(key, ".")
		if !hasPath {
			continue
		}
		if path == "" {
			return filter, opts, fmt.Errorf("%s: missing field path", key)
		}

		switch op {
		case "eq":
			if val == "null" {
				filter.Equals = put(filter.Equals, path, any(nil))
			} else {
				filter.Text = put(filter.Text, path, val)
			}
		case "ref":
			filter.Equals = put(filter.Equals, path, any(document.Ref(val)))
		case "min", "max":
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return filter, opts, fmt.Errorf("%s: %q is not a number", key, val)
			}
			if op == "min" {
				filter.Min = put(filter.Min, path, n)
			} else {
				filter.Max = put(filter.Max, path, n)
			}
		}
	}

	filter.Search = values.Get("q")
	if in := values.Get("in"); in != "" {
		for _, f := range strings.Split(in, ",") {
			if f = strings.TrimSpace(f); f != "" {
				filter.SearchFields = append(filter.SearchFields, f)
			}
		}
	}

	if sort := values.Get("sort"); sort != "" {
		opts.Sort, opts.Descending = strings.CutPrefix(sort, "-")
	}

	opts.Limit = defaultPageLimit
	if s := values.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return filter, opts, fmt.Errorf("invalid limit %q", s)
		}
		opts.Limit = min(n, maxPageLimit)
	}
	if s := values.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, opts, fmt.Errorf("invalid skip %q", s)
		}
		opts.Skip = n
	}

	return filter, opts, nil
}

func put[V any](m map[string]V, key string, v V) map[string]V {
	if m == nil {
		m = make(map[string]V)
	}
	m[key] = v
	return m
}
