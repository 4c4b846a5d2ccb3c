package repository

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fjod/bookstore/internal/domain"
)

const bookColumns = "isbn, title, author, subject, price"

// sqlQuery is a parameterized statement. User input only ever travels in Args.
type sqlQuery struct {
	Text string
	Args []any
}

// filterClause describes how one filter field narrows the catalog. A field
// contributes its predicate only when present reports true.
type filterClause struct {
	present   func(domain.Filter) bool
	predicate func(ph string) string
	arg       func(domain.Filter) any
}

var catalogFilters = []filterClause{
	{
		present:   func(f domain.Filter) bool { return f.Subject != "" },
		predicate: func(ph string) string { return "subject = " + ph },
		arg:       func(f domain.Filter) any { return f.Subject },
	},
	{
		// author matches by case-insensitive prefix
		present:   func(f domain.Filter) bool { return f.Author != "" },
		predicate: func(ph string) string { return "LOWER(author) LIKE LOWER(" + ph + ") ESCAPE '\\'" },
		arg:       func(f domain.Filter) any { return escapeLike(f.Author) + "%" },
	},
	{
		// title matches by case-insensitive substring
		present:   func(f domain.Filter) bool { return f.Title != "" },
		predicate: func(ph string) string { return "LOWER(title) LIKE LOWER(" + ph + ") ESCAPE '\\'" },
		arg:       func(f domain.Filter) any { return "%" + escapeLike(f.Title) + "%" },
	},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE metacharacters in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func whereClause(f domain.Filter) (string, []any) {
	var (
		preds []string
		args  []any
	)
	for _, c := range catalogFilters {
		if !c.present(f) {
			continue
		}
		args = append(args, c.arg(f))
		preds = append(preds, c.predicate(placeholder(len(args))))
	}
	if len(preds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

// composeCatalogQuery builds the page query and the matching count query from
// the same predicate set, so the count always describes the rows being paged.
func composeCatalogQuery(f domain.Filter, p domain.PageRequest) (data, count sqlQuery) {
	where, args := whereClause(f.Normalize())

	count = sqlQuery{
		Text: "SELECT COUNT(*) FROM books" + where,
		Args: args,
	}

	n := len(args)
	data = sqlQuery{
		Text: fmt.Sprintf("SELECT %s FROM books%s ORDER BY title, isbn LIMIT %s OFFSET %s",
			bookColumns, where, placeholder(n+1), placeholder(n+2)),
		Args: append(slices.Clone(args), p.Limit(), p.Offset()),
	}
	return data, count
}
