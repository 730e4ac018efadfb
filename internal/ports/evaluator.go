package ports

import "beanbook/internal/domain"

// QueryEvaluator runs a query string over structured directives and returns
// tabular results. Cell values are transport-neutral: decimal numbers as
// strings, dates as ISO-8601 strings, plus int64, bool and nil.
type QueryEvaluator interface {
	Evaluate(entries []domain.Directive, query string) (columns []string, rows [][]any, err error)
}
