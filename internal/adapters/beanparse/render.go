package beanparse

import (
	"fmt"
	"sort"
	"strings"

	"beanbook/internal/domain"
)

// accountWidth is the column postings' amounts are aligned to.
const accountWidth = 40

// FormatTransaction renders a transaction to its canonical text form. The
// output is deterministic and re-parses to semantically identical data:
// header, transaction metadata (sorted keys), then postings with their own
// metadata.
func FormatTransaction(txn *domain.Transaction) string {
	var b strings.Builder

	b.WriteString(txn.When.Format(domain.DateFormat))
	b.WriteString(" ")
	flag := txn.Flag
	if flag == "" {
		flag = "*"
	}
	b.WriteString(flag)
	if txn.Payee != "" {
		fmt.Fprintf(&b, " %s %s", quoteString(txn.Payee), quoteString(txn.Narration))
	} else if txn.Narration != "" {
		fmt.Fprintf(&b, " %s", quoteString(txn.Narration))
	}
	tags := append([]string(nil), txn.Tags...)
	sort.Strings(tags)
	for _, tag := range tags {
		b.WriteString(" #")
		b.WriteString(tag)
	}
	b.WriteString("\n")

	writeMeta(&b, txn.Meta, "  ")
	for _, post := range txn.Postings {
		writePosting(&b, post)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writePosting(b *strings.Builder, post domain.Posting) {
	padding := accountWidth - len(post.Account)
	if padding < 2 {
		padding = 2
	}
	fmt.Fprintf(b, "  %s%s%s", post.Account, strings.Repeat(" ", padding), post.Units.String())
	if post.Cost != nil {
		fmt.Fprintf(b, " {%s %s", domain.FormatDecimal(post.Cost.Number), post.Cost.Currency)
		if post.Cost.Date != "" {
			fmt.Fprintf(b, ", %s", post.Cost.Date)
		}
		if post.Cost.Label != "" {
			fmt.Fprintf(b, ", %s", quoteString(post.Cost.Label))
		}
		b.WriteString("}")
	}
	if post.PriceAnno != nil {
		fmt.Fprintf(b, " @ %s", post.PriceAnno.String())
	}
	b.WriteString("\n")
	writeMeta(b, post.Meta, "    ")
}

func writeMeta(b *strings.Builder, meta map[string]string, indent string) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k == domain.MetaFilename || k == domain.MetaLineno {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s%s: %s\n", indent, k, quoteString(meta[k]))
	}
}

// quoteString renders s as a double-quoted ledger string. Embedded quotes
// and backslashes are backslash-escaped, the form the tokenizer reads back.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
