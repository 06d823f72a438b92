// Package query turns list query strings into gorm query constraints.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	DefaultSort  = "-createdAt"
)

var reserved = map[string]bool{
	"page": true, "limit": true, "sort": true, "fields": true, "keyword": true,
}

var operatorKey = regexp.MustCompile(`^(\w+)\[(gte|gt|lte|lt)\]$`)

var operators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// Condition is one filter term. Field is the public (JSON) field name.
type Condition struct {
	Field string
	Op    string
	Value string
}

type Features struct {
	Conditions []Condition
	Sort       []string
	Fields     []string
	Keyword    string
	Page       int
	Limit      int
}

// Parse reads page, limit, sort, fields and keyword and treats every other
// key as a filter. field[gte]=v style keys become comparisons.
func Parse(params map[string]string) Features {
	f := Features{
		Page:    positiveOr(params["page"], DefaultPage),
		Limit:   positiveOr(params["limit"], DefaultLimit),
		Sort:    splitList(params["sort"]),
		Fields:  splitList(params["fields"]),
		Keyword: strings.TrimSpace(params["keyword"]),
	}
	if len(f.Sort) == 0 {
		f.Sort = []string{DefaultSort}
	}

	for key, value := range params {
		if reserved[key] {
			continue
		}
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			f.Conditions = append(f.Conditions, Condition{Field: m[1], Op: operators[m[2]], Value: value})
			continue
		}
		f.Conditions = append(f.Conditions, Condition{Field: key, Op: "=", Value: value})
	}

	return f
}

func (f Features) Skip() int {
	return (f.Page - 1) * f.Limit
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
