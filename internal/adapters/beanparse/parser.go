// Package beanparse implements the ports.Parser contract for the
// double-entry directive language: it turns ledger text into structured
// directives plus a list of validation errors, and renders transactions
// back to their canonical text form.
package beanparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"beanbook/internal/domain"
	"beanbook/internal/ports"
)

// Parser is a stateless ledger-text parser. The zero value is ready to use.
type Parser struct{}

// New returns a ready parser.
func New() *Parser { return &Parser{} }

var _ ports.Parser = (*Parser)(nil)

var (
	dateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	accountRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9-]*(:[A-Za-z0-9-]+)+$`)
	currRe    = regexp.MustCompile(`^[A-Z][A-Z0-9'._-]*$`)
	metaRe    = regexp.MustCompile(`^([a-z][A-Za-z0-9_-]*):\s*(.*)$`)
	tagRe     = regexp.MustCompile(`^#[A-Za-z0-9-_/.]+$`)
)

// Parse parses ledger text held in memory. Problems in the text come back
// as ParseErrors; the error return is reserved for I/O-level failures and
// is always nil here.
func (p *Parser) Parse(text string) ([]domain.Directive, []ports.ParseError, error) {
	s := &parseState{}
	for i, line := range strings.Split(text, "\n") {
		s.line(i+1, line)
	}
	s.finish()
	return s.entries, s.errs, nil
}

type parseState struct {
	entries []domain.Directive
	errs    []ports.ParseError
	txn     *domain.Transaction // transaction being accumulated
	opened  map[string]bool
}

func (s *parseState) errorf(line int, format string, args ...any) {
	s.errs = append(s.errs, ports.ParseError{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (s *parseState) line(lineno int, raw string) {
	trimmed := strings.TrimRight(raw, " \t")
	if trimmed == "" || strings.HasPrefix(strings.TrimSpace(trimmed), ";") {
		return
	}

	indented := trimmed[0] == ' ' || trimmed[0] == '\t'
	if indented {
		if s.txn == nil {
			s.errorf(lineno, "indented line outside a transaction")
			return
		}
		s.continuation(lineno, strings.TrimSpace(trimmed))
		return
	}

	// A new top-level directive closes any transaction in progress.
	s.flushTxn()

	tokens := tokenize(trimmed)
	if len(tokens) == 0 {
		return
	}
	if !dateRe.MatchString(tokens[0].text) {
		// option / plugin / include and anything else undated.
		s.entries = append(s.entries, &domain.Other{Raw: trimmed})
		return
	}
	when, err := time.Parse(domain.DateFormat, tokens[0].text)
	if err != nil {
		s.errorf(lineno, "invalid date %q", tokens[0].text)
		return
	}
	if len(tokens) < 2 {
		s.errorf(lineno, "dated line with no directive keyword")
		return
	}
	base := domain.DirectiveBase{When: when, Line: lineno}

	switch kw := tokens[1].text; kw {
	case "open":
		s.open(lineno, base, tokens[2:])
	case "close":
		s.close(lineno, base, tokens[2:])
	case "price":
		s.price(lineno, base, tokens[2:])
	case "txn", "*", "!":
		flag := kw
		if kw == "txn" {
			flag = "*"
		}
		s.txnHeader(lineno, base, flag, tokens[2:])
	default:
		// balance, pad, note, document, event, commodity, ...
		s.entries = append(s.entries, &domain.Other{DirectiveBase: base, Raw: trimmed})
	}
}

func (s *parseState) open(lineno int, base domain.DirectiveBase, rest []token) {
	if len(rest) < 1 || !accountRe.MatchString(rest[0].text) {
		s.errorf(lineno, "open directive requires an account name")
		return
	}
	o := &domain.Open{DirectiveBase: base, Account: rest[0].text, Meta: map[string]string{}}
	for _, tok := range rest[1:] {
		switch {
		case tok.quoted:
			o.Booking = tok.text
		default:
			for _, cur := range strings.Split(tok.text, ",") {
				if cur == "" {
					continue
				}
				if !currRe.MatchString(cur) {
					s.errorf(lineno, "invalid currency %q in open directive", cur)
					continue
				}
				o.Currencies = append(o.Currencies, cur)
			}
		}
	}
	s.entries = append(s.entries, o)
}

func (s *parseState) close(lineno int, base domain.DirectiveBase, rest []token) {
	if len(rest) != 1 || !accountRe.MatchString(rest[0].text) {
		s.errorf(lineno, "close directive requires an account name")
		return
	}
	s.entries = append(s.entries, &domain.Close{DirectiveBase: base, Account: rest[0].text})
}

func (s *parseState) price(lineno int, base domain.DirectiveBase, rest []token) {
	if len(rest) != 3 {
		s.errorf(lineno, "price directive requires commodity, number and currency")
		return
	}
	rate, err := domain.NewAmount(rest[1].text, rest[2].text)
	if err != nil {
		s.errorf(lineno, "invalid price: %v", err)
		return
	}
	s.entries = append(s.entries, &domain.Price{DirectiveBase: base, Commodity: rest[0].text, Rate: rate})
}

func (s *parseState) txnHeader(lineno int, base domain.DirectiveBase, flag string, rest []token) {
	txn := &domain.Transaction{
		DirectiveBase: base,
		Flag:          flag,
		Meta:          map[string]string{},
	}
	var strs []string
	for _, tok := range rest {
		switch {
		case tok.quoted:
			strs = append(strs, tok.text)
		case tagRe.MatchString(tok.text):
			txn.Tags = append(txn.Tags, strings.TrimPrefix(tok.text, "#"))
		case strings.HasPrefix(tok.text, "^"):
			// links are preserved nowhere; this system does not use them
		default:
			s.errorf(lineno, "unexpected token %q in transaction header", tok.text)
		}
	}
	switch len(strs) {
	case 0:
	case 1:
		txn.Narration = strs[0]
	case 2:
		txn.Payee, txn.Narration = strs[0], strs[1]
	default:
		s.errorf(lineno, "too many strings in transaction header")
	}
	s.txn = txn
}

// continuation handles an indented line belonging to the open transaction:
// either a metadata line or a posting.
func (s *parseState) continuation(lineno int, body string) {
	if m := metaRe.FindStringSubmatch(body); m != nil {
		value := unquote(strings.TrimSpace(m[2]))
		if n := len(s.txn.Postings); n > 0 {
			if s.txn.Postings[n-1].Meta == nil {
				s.txn.Postings[n-1].Meta = map[string]string{}
			}
			s.txn.Postings[n-1].Meta[m[1]] = value
		} else {
			s.txn.Meta[m[1]] = value
		}
		return
	}
	s.posting(lineno, body)
}

func (s *parseState) posting(lineno int, body string) {
	tokens := tokenize(body)
	if len(tokens) == 0 {
		return
	}
	if !accountRe.MatchString(tokens[0].text) {
		s.errorf(lineno, "invalid account name %q", tokens[0].text)
		return
	}
	if len(tokens) < 3 {
		s.errorf(lineno, "posting for %s requires an amount", tokens[0].text)
		return
	}
	units, err := domain.NewAmount(tokens[1].text, tokens[2].text)
	if err != nil {
		s.errorf(lineno, "invalid posting amount: %v", err)
		return
	}
	post := domain.Posting{Account: tokens[0].text, Units: units}

	rest := tokens[3:]
	for len(rest) > 0 {
		switch rest[0].text {
		case "{":
			consumed, cost, perr := parseCost(rest)
			if perr != "" {
				s.errorf(lineno, "%s", perr)
				return
			}
			post.Cost = cost
			rest = rest[consumed:]
		case "@":
			if len(rest) < 3 {
				s.errorf(lineno, "price annotation requires number and currency")
				return
			}
			price, err := domain.NewAmount(rest[1].text, rest[2].text)
			if err != nil {
				s.errorf(lineno, "invalid price annotation: %v", err)
				return
			}
			post.PriceAnno = &price
			rest = rest[3:]
		case "@@":
			s.errorf(lineno, "total price annotations (@@) are not supported")
			return
		default:
			s.errorf(lineno, "unexpected token %q in posting", rest[0].text)
			return
		}
	}
	s.txn.Postings = append(s.txn.Postings, post)
}

// parseCost consumes "{ NUMBER CUR [, DATE] [, "label"] }" from tokens.
func parseCost(tokens []token) (consumed int, cost *domain.Cost, errMsg string) {
	i := 1
	var parts []token
	for ; i < len(tokens); i++ {
		if tokens[i].text == "}" {
			break
		}
		parts = append(parts, tokens[i])
	}
	if i == len(tokens) {
		return 0, nil, "unterminated cost annotation"
	}
	if len(parts) < 2 {
		return 0, nil, "cost annotation requires number and currency"
	}
	amt, err := domain.NewAmount(parts[0].text, parts[1].text)
	if err != nil {
		return 0, nil, fmt.Sprintf("invalid cost: %v", err)
	}
	c := &domain.Cost{Number: amt.Number, Currency: amt.Currency}
	for _, extra := range parts[2:] {
		switch {
		case extra.quoted:
			c.Label = extra.text
		case dateRe.MatchString(extra.text):
			c.Date = extra.text
		default:
			return 0, nil, fmt.Sprintf("unexpected token %q in cost annotation", extra.text)
		}
	}
	return i + 1, c, ""
}

// flushTxn validates and emits the transaction in progress, if any.
func (s *parseState) flushTxn() {
	if s.txn == nil {
		return
	}
	txn := s.txn
	s.txn = nil

	inv := domain.NewInventory()
	for _, post := range txn.Postings {
		inv.Add(post.Weight())
	}
	if !inv.IsEmpty() {
		var residuals []string
		for _, a := range inv.Amounts() {
			residuals = append(residuals, a.String())
		}
		s.errorf(txn.Line, "transaction does not balance: residual %s", strings.Join(residuals, ", "))
	}
	s.entries = append(s.entries, txn)
}

// finish runs end-of-input and whole-file validation.
func (s *parseState) finish() {
	s.flushTxn()

	s.opened = map[string]bool{}
	for _, entry := range s.entries {
		if o, ok := entry.(*domain.Open); ok {
			if s.opened[o.Account] {
				s.errorf(o.Line, "duplicate open directive for account %s", o.Account)
			}
			s.opened[o.Account] = true
		}
	}
	for _, entry := range s.entries {
		txn, ok := entry.(*domain.Transaction)
		if !ok {
			continue
		}
		for _, post := range txn.Postings {
			if !s.opened[post.Account] {
				s.errorf(txn.Line, "posting to unknown account %s", post.Account)
			}
		}
	}
}

// unquote strips one pair of surrounding double quotes and resolves the
// backslash escapes quoteString emits. Unquoted values pass through as is.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

// token is one lexical unit of a directive line.
type token struct {
	text   string
	quoted bool
}

// tokenize splits a line into tokens, honoring double-quoted strings and
// separating cost-annotation braces. A trailing inline comment is dropped.
func tokenize(line string) []token {
	var out []token
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, token{text: cur.String()})
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuote:
			switch {
			case ch == '\\' && i+1 < len(line):
				i++
				cur.WriteByte(line[i])
			case ch == '"':
				out = append(out, token{text: cur.String(), quoted: true})
				cur.Reset()
				inQuote = false
			default:
				cur.WriteByte(ch)
			}
		case ch == '"':
			flush()
			inQuote = true
		case ch == ';':
			flush()
			return out
		case ch == ' ' || ch == '\t':
			flush()
		case ch == '{' || ch == '}':
			flush()
			out = append(out, token{text: string(ch)})
		case ch == ',':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return out
}
