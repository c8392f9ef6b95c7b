package index

import (
	"fmt"
	"strings"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

// BuildQuery renders a structured index query into RediSearch syntax.
// Filters are conjunctive pre-conditions; the free-text part matches
// across all TEXT fields using the weights declared at index creation.
func BuildQuery(schema *content.Schema, q query.IndexQuery) string {
	var parts []string
	for _, c := range q.Clauses {
		if rendered := buildClause(schema, c); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, "("+escapeQuery(text)+")")
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildClause(schema *content.Schema, c query.Clause) string {
	switch c.Op {
	case content.FilterEq:
		if schema.IsTagField(c.Field) {
			return buildTagClause(c.Field, []string{c.Str})
		}
		return fmt.Sprintf("@%s:(%s)", c.Field, escapeQuery(c.Str))
	case content.FilterMin:
		return fmt.Sprintf("@%s:[%g +inf]", c.Field, c.Num)
	case content.FilterMax:
		return fmt.Sprintf("@%s:[-inf %g]", c.Field, c.Num)
	case content.FilterAnyOf:
		return buildTagClause(c.Field, c.Set)
	}
	return ""
}

func buildTagClause(field string, values []string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, tagEscaper.Replace(v))
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, "|"))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
