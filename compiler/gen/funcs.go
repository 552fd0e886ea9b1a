package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"ACL", "API", "ASCII", "AWS", "CPU", "CSS", "DNS", "EOF", "GB", "GUID",
		"HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "KB", "LHS", "MAC", "MB",
		"QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "SSO", "TCP",
		"TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID", "VM",
		"XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

// pascal converts a snake_case identifier to PascalCase, keeping known
// acronyms upper-case: "user_id" becomes "UserID".
func pascal(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	return pascalWords(words)
}

func pascalWords(words []string) string {
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
			continue
		}
		words[i] = rules.Capitalize(w)
	}
	return strings.Join(words, "")
}

// camel converts a snake_case identifier to camelCase.
func camel(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return s
	}
	if len(words) == 1 {
		return strings.ToLower(words[0])
	}
	return strings.ToLower(words[0]) + pascalWords(words[1:])
}

// snake converts an identifier to snake_case: "UserID" becomes
// "user_id" and "HTTPCode" becomes "http_code".
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, the current
		// letter is uppercase, and the previous letter is lowercase
		// ("UserInfo"), or the next letter is lowercase and the word
		// did not just break ("HTTPCode").
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}

// plural pluralizes the last word of a snake_case identifier:
// "blog_post" becomes "blog_posts".
func plural(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return s
	}
	words[len(words)-1] = rules.Pluralize(words[len(words)-1])
	return strings.Join(words, "_")
}

// singular singularizes the last word of a snake_case identifier:
// "blog_posts" becomes "blog_post".
func singular(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return s
	}
	words[len(words)-1] = rules.Singularize(words[len(words)-1])
	return strings.Join(words, "_")
}

// trimIDSuffix strips a trailing key marker from a column name:
// "manager_id" becomes "manager". A name that is nothing but the marker
// stays as is.
func trimIDSuffix(s string) string {
	for _, suffix := range []string{"_id", "_uuid", "_fk"} {
		if t := strings.TrimSuffix(s, suffix); t != s && t != "" {
			return t
		}
	}
	return s
}

// Pascal exposes the PascalCase conversion to emitters.
func Pascal(s string) string { return pascal(s) }

// Camel exposes the camelCase conversion to emitters.
func Camel(s string) string { return camel(s) }

// Snake exposes the snake_case conversion to emitters.
func Snake(s string) string { return snake(s) }
