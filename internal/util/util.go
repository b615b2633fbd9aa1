package util

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func IsURL(str string) bool {
	parsed, err := url.ParseRequestURI(str)
	if err != nil {
		return false
	}

	return parsed.Scheme != ""
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
// Underscores separate words but are kept, so "tailscale_service" becomes
// "Tailscale_Service" and "peer count" becomes "Peer Count".
func TitleCase(s string) string {
	caser := cases.Title(language.English)
	parts := strings.Split(s, "_")
	for i, part := range parts {
		parts[i] = caser.String(part)
	}
	return strings.Join(parts, "_")
}

// HumanizeKey turns a snake_case key into a title-cased phrase, e.g.
// "container_memory_limit" becomes "Container Memory Limit".
func HumanizeKey(key string) string {
	return TitleCase(strings.ReplaceAll(key, "_", " "))
}
