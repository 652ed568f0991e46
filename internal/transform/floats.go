package transform

import "strings"

// floatCaption reads a caption paragraph such as "Figure 3: A plot" at the
// start of text, after leading newlines. It returns the number, the caption
// and the text that follows the paragraph.
func floatCaption(text, word string) (num, caption, rest string, ok bool) {
	body := strings.TrimLeft(text, "\n")
	if !strings.HasPrefix(body, word+" ") {
		return "", "", text, false
	}

	end := strings.Index(body, "\n\n")
	if end < 0 {
		end = len(body)
	}
	para := body[len(word)+1 : end]

	numEnd := len(para)
	if i := strings.IndexAny(para, ":\n"); i >= 0 {
		numEnd = i
	}
	num = strings.TrimSpace(para[:numEnd])
	if num == "" || strings.ContainsAny(num, " \t{}\\") {
		return "", "", text, false
	}
	if numEnd < len(para) {
		caption = strings.TrimSpace(para[numEnd+1:])
	}
	return num, caption, body[end:], true
}

// linkReferences rewrites "Figure N" style mentions as references to the
// given labels. A mention followed by another digit is left alone so that
// "Figure 1" does not match inside "Figure 12".
func linkReferences(text string, words []string, prefix string, nums []string) string {
	for _, num := range nums {
		for _, word := range words {
			needle := word + " " + num
			ref := word + ` \ref{` + prefix + num + `}`

			var sb strings.Builder
			cursor := 0
			for {
				at := strings.Index(text[cursor:], needle)
				if at < 0 {
					sb.WriteString(text[cursor:])
					break
				}
				at += cursor
				end := at + len(needle)
				sb.WriteString(text[cursor:at])
				if end < len(text) && (isDigit(text[end]) || text[end] == '.' && end+1 < len(text) && isDigit(text[end+1])) {
					sb.WriteString(needle)
				} else {
					sb.WriteString(ref)
				}
				cursor = end
			}
			text = sb.String()
		}
	}
	return text
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
