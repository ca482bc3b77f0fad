package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var loremWords = strings.Fields("harbor bridge engineers measured steel cables before winter storms arrived across the bay while inspectors logged every rivet and weld")

// prose returns roughly n characters of sentence-like text without boilerplate words
func prose(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(loremWords[i%len(loremWords)])
	}
	return b.String()
}

// paragraphs renders count <p> elements of about size characters each
func paragraphs(count, size int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "<p>%d %s.</p>\n", i, prose(size))
	}
	return b.String()
}

func mustDoc(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	return doc
}

func tagOf(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return goquery.NodeName(s)
}
