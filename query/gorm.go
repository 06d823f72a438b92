package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"eshop/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var keywordFields = []string{"name", "description"}

type Column struct {
	Name string
	Type schema.DataType
}

// Columns maps public field names to table columns.
type Columns map[string]Column

var columnCache sync.Map

// ColumnsOf lists the filterable columns of model keyed by JSON name.
// Fields hidden from JSON are not exposed.
func ColumnsOf(db *gorm.DB, model any) (Columns, error) {
	typ := reflect.TypeOf(model)
	if cached, ok := columnCache.Load(typ); ok {
		return cached.(Columns), nil
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parse schema of %v: %w", typ, err)
	}

	cols := make(Columns, len(stmt.Schema.Fields))
	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" {
			continue
		}
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		cols[name] = Column{Name: field.DBName, Type: field.DataType}
	}

	columnCache.Store(typ, cols)
	return cols, nil
}

// Filter applies the comparison conditions and the keyword search.
// Conditions on unknown fields are dropped.
func (f Features) Filter(tx *gorm.DB, cols Columns) (*gorm.DB, error) {
	for _, cond := range f.Conditions {
		col, ok := cols[cond.Field]
		if !ok {
			continue
		}
		value, err := col.coerce(cond.Value)
		if err != nil {
			return nil, apperr.Field(cond.Field, fmt.Sprintf("invalid value %q", cond.Value))
		}
		tx = tx.Where(comparison(col, cond.Op, value))
	}

	if f.Keyword == "" {
		return tx, nil
	}

	pattern := "%" + strings.ToLower(f.Keyword) + "%"
	var (
		parts []string
		args  []any
	)
	for _, name := range keywordFields {
		col, ok := cols[name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE ?", tx.Statement.Quote(col.Name)))
		args = append(args, pattern)
	}
	if len(parts) > 0 {
		tx = tx.Where("("+strings.Join(parts, " OR ")+")", args...)
	}

	return tx, nil
}

// Shape applies ordering, projection and the page window.
func (f Features) Shape(tx *gorm.DB, cols Columns) *gorm.DB {
	first, tieBreak, tieDesc := true, false, false
	for _, key := range f.Sort {
		desc := strings.HasPrefix(key, "-")
		col, ok := cols[strings.TrimPrefix(key, "-")]
		if !ok {
			continue
		}
		tx = tx.Order(orderBy(col.Name, desc))
		if first {
			first, tieBreak, tieDesc = false, col.Name != "id", desc
		}
	}
	// rows sharing a timestamp still need a stable page order
	if tieBreak {
		tx = tx.Order(orderBy("id", tieDesc))
	}

	if selected := f.projection(cols); len(selected) > 0 {
		tx = tx.Select(selected)
	}

	return tx.Offset(f.Skip()).Limit(f.Limit)
}

func orderBy(column string, desc bool) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Desc: desc}
}

// projection resolves fields=a,b (include) or fields=-a,-b (exclude).
func (f Features) projection(cols Columns) []string {
	if len(f.Fields) == 0 {
		return nil
	}

	include := []string{"id"}
	exclude := map[string]bool{}
	for _, name := range f.Fields {
		if strings.HasPrefix(name, "-") {
			if col, ok := cols[strings.TrimPrefix(name, "-")]; ok && col.Name != "id" {
				exclude[col.Name] = true
			}
			continue
		}
		if col, ok := cols[name]; ok && col.Name != "id" {
			include = append(include, col.Name)
		}
	}

	if len(include) > 1 {
		return include
	}
	if len(exclude) == 0 {
		return nil
	}

	var kept []string
	for _, col := range cols {
		if !exclude[col.Name] {
			kept = append(kept, col.Name)
		}
	}
	return kept
}

func comparison(col Column, op string, value any) clause.Expression {
	column := clause.Column{Table: clause.CurrentTable, Name: col.Name}
	switch op {
	case ">=":
		return clause.Gte{Column: column, Value: value}
	case ">":
		return clause.Gt{Column: column, Value: value}
	case "<=":
		return clause.Lte{Column: column, Value: value}
	case "<":
		return clause.Lt{Column: column, Value: value}
	default:
		return clause.Eq{Column: column, Value: value}
	}
}

func (c Column) coerce(raw string) (any, error) {
	switch c.Type {
	case schema.Int:
		return strconv.ParseInt(raw, 10, 64)
	case schema.Uint:
		return strconv.ParseUint(raw, 10, 64)
	case schema.Float:
		return strconv.ParseFloat(raw, 64)
	case schema.Bool:
		return strconv.ParseBool(raw)
	case schema.Time:
		return time.Parse(time.RFC3339, raw)
	default:
		return raw, nil
	}
}
