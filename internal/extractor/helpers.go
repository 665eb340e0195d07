package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/user/dashboard-scraper/internal/urlnorm"
)

const (
	nearbyTextMaxChars = 240
	nearbyTextMaxNodes = 6
)

var bylineClass = regexp.MustCompile(`(?i)(author|byline|writer|posted-by)`)

// strippedText joins the trimmed text nodes under s with no separator.
func strippedText(s *goquery.Selection) string {
	return joinText(s, "")
}

// spacedText joins the trimmed text nodes under s with single spaces.
func spacedText(s *goquery.Selection) string {
	return joinText(s, " ")
}

func joinText(s *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, sep)
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstAttr returns the first non-blank attribute among names, trimmed.
func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := s.Attr(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func hasClassMatching(s *goquery.Selection, re *regexp.Regexp) bool {
	class, ok := s.Attr("class")
	return ok && re.MatchString(class)
}

// resolveHref resolves the href of s against base, "" when absent.
func resolveHref(s *goquery.Selection, base *url.URL) string {
	href, ok := s.Attr("href")
	if !ok {
		return ""
	}
	return urlnorm.Resolve(base, href)
}

// nextInDocument returns the node following n in document order. With
// skipChildren it steps over n's subtree.
func nextInDocument(n *html.Node, skipChildren bool) *html.Node {
	if !skipChildren && n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// nearbyText collects up to six non-blank text nodes that follow el in
// document order, stopping once 240 characters are gathered. Script and
// style contents are ignored.
func nearbyText(el *goquery.Selection) string {
	if el.Length() == 0 {
		return ""
	}
	var (
		texts []string
		total int
	)
	n := nextInDocument(el.Get(0), false)
	for n != nil && len(texts) < nearbyTextMaxNodes {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			n = nextInDocument(n, true)
			continue
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				texts = append(texts, t)
				total += len([]rune(t))
				if total >= nearbyTextMaxChars {
					break
				}
			}
		}
		n = nextInDocument(n, false)
	}
	snippet := strings.TrimSpace(strings.Join(texts, " "))
	if r := []rune(snippet); len(r) > nearbyTextMaxChars {
		snippet = string(r[:nearbyTextMaxChars])
	}
	return snippet
}

// findAuthor walks up from el looking for a byline: a descendant whose
// class mentions author/byline/writer/posted-by, a data-author attribute,
// or an itemprop=author container. The walk stops at body.
func findAuthor(el *goquery.Selection) string {
	author := ""
	el.Parents().EachWithBreak(func(_ int, anc *goquery.Selection) bool {
		name := goquery.NodeName(anc)
		if name == "body" || name == "html" {
			return false
		}
		anc.Find("*").EachWithBreak(func(_ int, c *goquery.Selection) bool {
			if hasClassMatching(c, bylineClass) {
				author = strippedText(c)
			}
			return author == ""
		})
		if author != "" {
			return false
		}
		if v, ok := anc.Attr("data-author"); ok {
			author = strings.TrimSpace(v)
			return false
		}
		if prop, ok := anc.Attr("itemprop"); ok && strings.Contains(prop, "author") {
			if author = strippedText(anc); author != "" {
				return false
			}
		}
		return true
	})
	return author
}

// figcaption returns the figcaption of the nearest figure around el.
func figcaption(el *goquery.Selection) *goquery.Selection {
	return el.Closest("figure").Find("figcaption").First()
}
