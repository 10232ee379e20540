package sirocco

import (
	"net/url"
	"strings"
)

// query keeps parameters in insertion order; the API documents them in a
// fixed order and url.Values would sort them.
type query []queryParam

type queryParam struct {
	key   string
	value string
}

func (q query) add(key, value string) query {
	return append(q, queryParam{key: key, value: value})
}

func (q query) encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(escapeValue(p.value))
	}
	return b.String()
}

func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
