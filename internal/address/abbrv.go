package address

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxAbbrvLen = 8

var (
	wsRe    = regexp.MustCompile(`\s+`)
	punctRe = regexp.MustCompile(`["',./:()]`)
	andRe   = regexp.MustCompile(` [&] `)
	qualRe  = regexp.MustCompile(`(?i)\W(a +s|ab|ag|b ?v|closed joint stock company|co|company|corp|corporation|de c ?v|gmbh|holding|inc|incorporated|jsc|kg|k k|limited|llc|ltd|n ?v|oao|of|open joint stock company|ooo|oü|oy|oyj|plc|pty|pvt|s ?a ?r ?l|s ?a|s ?p ?a|sp ?k|s ?r ?l|systems|the|zao|z ?o ?o) `)
)

// Abbreviate shortens an organization name to at most eight characters by
// dropping punctuation, whitespace and legal-entity qualifiers.
//
//	Abbreviate("Cisco Systems, Inc") == "Cisco"
func Abbreviate(name string) string {
	words := strings.Split(wsRe.ReplaceAllString(name, " "), " ")
	for i, w := range words {
		if w != "" && w[0] < utf8.RuneSelf && asciiUpper(w) == w {
			words[i] = w[:1] + asciiLower(w[1:])
		}
	}
	orig := strings.Join(words, " ")

	s := punctRe.ReplaceAllString(" "+orig+" ", " ")
	s = andRe.ReplaceAllString(s, " ")
	s = qualRe.ReplaceAllString(s, " ")
	s = wsRe.ReplaceAllString(s, "")
	if s == "" {
		s = orig
	}

	if utf8.RuneCountInString(s) > maxAbbrvLen {
		r := []rune(s)
		s = string(r[:maxAbbrvLen])
	}
	return s
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
