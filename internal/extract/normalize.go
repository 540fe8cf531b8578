package extract

import (
	"regexp"
	"strings"
)

var (
	reWhitespace = regexp.MustCompile(`[\s\x00]+`)
	reCRLF       = regexp.MustCompile(`\r\n?`)
)

// JoinPages turns raw pdftotext output into the extracted text: pages are split on
// form feeds, whitespace inside a page collapses to single spaces, and pages are
// joined with a newline in document order.
func JoinPages(raw string) (string, int) {
	raw = reCRLF.ReplaceAllString(raw, "\n")
	pages := strings.Split(raw, "\f")
	// pdftotext terminates every page with \f, leaving an empty tail
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	for i, p := range pages {
		pages[i] = normalizePage(p)
	}
	return strings.Join(pages, "\n"), len(pages)
}

func normalizePage(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
