package probe

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// extractTitle scans an HTML document for the first <title> element and
// returns its text content, whitespace-collapsed. Returns "" when no title
// exists or the document is not parseable as HTML.
func extractTitle(doc []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))

	inTitle := false
	var title strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// End of document (or a parse error, which the tokenizer treats
			// the same way).
			return ""
		case html.StartTagToken:
			token := tokenizer.Token()
			if token.Data == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				title.WriteString(tokenizer.Token().Data)
			}
		case html.EndTagToken:
			if inTitle {
				return strings.Join(strings.Fields(title.String()), " ")
			}
		}
	}
}
