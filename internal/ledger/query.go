package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"beanbook/internal/domain"
	"beanbook/internal/nl"
)

// RunQuery evaluates a query string over the current snapshot and
// serializes every cell to a transport-neutral value.
func (m *Manager) RunQuery(query string) (*QueryResult, error) {
	if m.evaluator == nil {
		return nil, fmt.Errorf("query support is not configured")
	}
	snap, err := m.Snapshot(false)
	if err != nil {
		return nil, err
	}
	columns, rows, err := m.evaluator.Evaluate(snap.Entries, query)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for i, cell := range row {
			row[i] = serializeCell(cell)
		}
	}
	return &QueryResult{Columns: columns, Rows: rows}, nil
}

// NaturalLanguageQuery maps a restricted set of question templates to a
// query string and runs it. The engine never interprets language itself.
func (m *Manager) NaturalLanguageQuery(question string) (*NLResult, error) {
	if !m.cfg.NL.Enabled {
		return nil, fmt.Errorf("natural-language querying is disabled by configuration")
	}
	query, err := nl.Render(question)
	if err != nil {
		return nil, err
	}
	result, err := m.RunQuery(query)
	if err != nil {
		return nil, err
	}
	return &NLResult{Query: query, Columns: result.Columns, Rows: result.Rows}, nil
}

// serializeCell normalizes an evaluator cell: decimal values stay decimal
// strings, byte slices become strings, dates become ISO-8601 strings, and
// floats are rendered through exact decimal conversion rather than passed
// on as binary floating point.
func serializeCell(cell any) any {
	switch v := cell.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(domain.DateFormat)
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return cell
	}
}
