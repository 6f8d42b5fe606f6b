// Package cql provides a builder for the CQL queries understood by the
// Paris API of the Zurich municipal parliament.
package cql

import (
	"fmt"
	"strings"
)

// openEnd is the end date the Paris API stores for mandates that are still running.
const openEnd = "9999-12-31 00:00:00"

// Builder provides a fluent interface for building CQL queries.
// Clauses are joined with AND; an optional sort clause is appended last.
type Builder struct {
	clauses []string
	sortBy  string
}

// NewBuilder creates an empty query builder.
func NewBuilder() *Builder {
	return &Builder{clauses: make([]string, 0, 4)}
}

// Any adds `field any "value"`, a word match on the index field.
func (b *Builder) Any(field, value string) *Builder {
	return b.add(field, "any", value)
}

// Equals adds `field = "value"`.
func (b *Builder) Equals(field, value string) *Builder {
	return b.add(field, "=", value)
}

// After adds `field > "value"`.
func (b *Builder) After(field, value string) *Builder {
	return b.add(field, ">", value)
}

// Before adds `field < "value"`.
func (b *Builder) Before(field, value string) *Builder {
	return b.add(field, "<", value)
}

// SortDescending orders the results by field, newest first.
func (b *Builder) SortDescending(field string) *Builder {
	b.sortBy = field + "/sort.descending"
	return b
}

// Empty reports whether no clause has been added.
func (b *Builder) Empty() bool {
	return len(b.clauses) == 0
}

// String returns the complete query.
func (b *Builder) String() string {
	q := strings.Join(b.clauses, " AND ")
	if b.sortBy != "" {
		if q == "" {
			return "sortBy " + b.sortBy
		}
		q += " sortBy " + b.sortBy
	}
	return q
}

func (b *Builder) add(field, op, value string) *Builder {
	b.clauses = append(b.clauses, fmt.Sprintf("%s %s %s", field, op, quote(value)))
	return b
}

// quote wraps value in double quotes. Embedded quotes are escaped with a backslash.
func quote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `"` + value + `"`
}

// BusinessQuery searches business items by title. Zero years are ignored;
// yearTo is inclusive.
func BusinessQuery(title string, yearFrom, yearTo int, department string) string {
	b := NewBuilder().Any("Titel", title)
	if yearFrom > 0 {
		b.After("beginn_start", fmt.Sprintf("%d-01-01 00:00:00", yearFrom))
	}
	if yearTo > 0 {
		b.Before("beginn_start", fmt.Sprintf("%d-01-01 00:00:00", yearTo+1))
	}
	if department != "" {
		b.Any("Departement", department)
	}
	return b.SortDescending("beginn_start").String()
}

// CommissionQuery searches the mandate index for members of a commission.
func CommissionQuery(commission, name string, activeOnly bool) string {
	b := NewBuilder().Any("gremium", commission)
	if activeOnly {
		b.After("Dauer_end", openEnd)
	}
	if name != "" {
		b.Any("Name", name)
	}
	return b.String()
}

// MemberQuery searches the contact index. Without any criterion it lists
// the active council members.
func MemberQuery(name, party string, activeOnly bool) string {
	b := NewBuilder()
	if name != "" {
		b.Any("NameVorname", name)
	}
	if party != "" {
		b.Any("Partei", party)
	}
	if activeOnly || b.Empty() {
		b.Equals("AktivesRatsmitglied", "true")
	}
	return b.String()
}
