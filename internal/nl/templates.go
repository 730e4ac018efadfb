// Package nl maps a restricted set of natural-language question templates
// to query strings for the ledger query evaluator. It is deliberately not a
// language model: unmatched questions fail rather than guess.
package nl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"beanbook/internal/domain"
)

// ErrNoTemplate is returned when no template matches the question.
var ErrNoTemplate = errors.New("could not map question to a supported query template")

var safeAccountRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9:-]*$`)

type template struct {
	pattern *regexp.Regexp
	build   func(match []string) (string, error)
}

var templates = []template{
	{
		pattern: regexp.MustCompile(`(?i)^balance of ([A-Za-z0-9:-]+)(?: as of (\d{4}-\d{2}-\d{2}))?$`),
		build:   buildBalance,
	},
	{
		pattern: regexp.MustCompile(`(?i)^total spending(?: in (.+))?$`),
		build:   buildTotalSpending,
	},
	{
		pattern: regexp.MustCompile(`(?i)^spending by category(?: in (.+))?$`),
		build:   buildSpendingByCategory,
	},
}

// Render returns a query string for the question, or ErrNoTemplate.
func Render(question string) (string, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "", fmt.Errorf("%w: question is empty", ErrNoTemplate)
	}
	for _, tpl := range templates {
		if match := tpl.pattern.FindStringSubmatch(trimmed); match != nil {
			return tpl.build(match)
		}
	}
	return "", ErrNoTemplate
}

func buildBalance(match []string) (string, error) {
	account, err := sanitizeAccount(match[1])
	if err != nil {
		return "", err
	}
	conditions := []string{accountPrefixCondition(account)}
	if match[2] != "" {
		if _, err := time.Parse(domain.DateFormat, match[2]); err != nil {
			return "", fmt.Errorf("invalid date %q", match[2])
		}
		conditions = append(conditions, fmt.Sprintf("date <= '%s'", match[2]))
	}
	return fmt.Sprintf(
		"SELECT account, dsum(number) AS total, currency FROM postings WHERE %s GROUP BY account, currency ORDER BY account",
		strings.Join(conditions, " AND "),
	), nil
}

func buildTotalSpending(match []string) (string, error) {
	conditions, err := spendingConditions(match[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT dsum(number) AS total, currency FROM postings WHERE %s GROUP BY currency ORDER BY currency",
		strings.Join(conditions, " AND "),
	), nil
}

func buildSpendingByCategory(match []string) (string, error) {
	conditions, err := spendingConditions(match[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT account, dsum(number) AS total, currency FROM postings WHERE %s GROUP BY account, currency ORDER BY account",
		strings.Join(conditions, " AND "),
	), nil
}

func spendingConditions(period string) ([]string, error) {
	conditions := []string{"account LIKE 'Expenses:%'"}
	start, end, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	if !start.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date >= '%s'", start.Format(domain.DateFormat)))
	}
	if !end.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date <= '%s'", end.Format(domain.DateFormat)))
	}
	return conditions, nil
}

func accountPrefixCondition(account string) string {
	return fmt.Sprintf("(account = '%s' OR account LIKE '%s:%%')", account, account)
}

func sanitizeAccount(account string) (string, error) {
	if !safeAccountRe.MatchString(account) {
		return "", fmt.Errorf("account names may only contain A-Z, digits, ':' and '-'")
	}
	return account, nil
}

var (
	dayRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearRe  = regexp.MustCompile(`^\d{4}$`)
)

// parsePeriod understands "YYYY", "YYYY-MM", "YYYY-MM-DD" and
// "<start> to <end>"; an empty period means no bounds.
func parsePeriod(period string) (start, end time.Time, err error) {
	trimmed := strings.TrimSpace(period)
	if trimmed == "" {
		return time.Time{}, time.Time{}, nil
	}
	if before, after, found := strings.Cut(trimmed, " to "); found {
		start, err = time.Parse(domain.DateFormat, strings.TrimSpace(before))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period start %q", before)
		}
		end, err = time.Parse(domain.DateFormat, strings.TrimSpace(after))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period end %q", after)
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end date must be on or after start date")
		}
		return start, end, nil
	}
	switch {
	case dayRe.MatchString(trimmed):
		start, err = time.Parse(domain.DateFormat, trimmed)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q", trimmed)
		}
		return start, start, nil
	case monthRe.MatchString(trimmed):
		start, err = time.Parse("2006-01", trimmed)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q", trimmed)
		}
		return start, start.AddDate(0, 1, -1), nil
	case yearRe.MatchString(trimmed):
		start, err = time.Parse("2006", trimmed)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q", trimmed)
		}
		return start, start.AddDate(1, 0, -1), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unsupported period format %q", period)
}
