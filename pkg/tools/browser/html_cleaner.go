package browser

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// CleanedPage is page HTML reduced to what a model needs: semantic
// structure and targeting attributes with scripts, styles, and other
// noise removed.
type CleanedPage struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

// cleanPage parses rawHTML and rebuilds it without noise elements,
// preserving semantic structure and key attributes, truncated at
// maxChars of emitted content.
func cleanPage(rawHTML string, maxChars int) (*CleanedPage, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &CleanedPage{
		Title:       extractTitle(doc),
		Description: extractMetaDescription(doc),
	}

	var builder strings.Builder
	var currentLength int
	result.Truncated = cleanNode(doc, &builder, &currentLength, maxChars, 0)

	result.HTML = builder.String()
	return result, nil
}

// cleanNode recursively processes HTML nodes, removing unwanted elements
// and preserving semantic structure with key attributes.
func cleanNode(n *html.Node, builder *strings.Builder, currentLength *int, maxChars int, depth int) bool {
	if *currentLength >= maxChars {
		return true // Truncated
	}

	if n.Type == html.CommentNode {
		return false
	}

	if n.Type == html.ElementNode && isSkippedElement(strings.ToLower(n.Data)) {
		return false
	}

	if n.Type == html.TextNode {
		return emitTextNode(n, builder, currentLength, maxChars)
	}

	if n.Type == html.ElementNode {
		return emitElementNode(n, builder, currentLength, maxChars, depth)
	}

	// Document/fragment nodes contribute nothing themselves
	return cleanChildren(n, builder, currentLength, maxChars, depth)
}

// emitTextNode writes a text node's trimmed content, cutting it at the
// remaining budget.
func emitTextNode(n *html.Node, builder *strings.Builder, currentLength *int, maxChars int) bool {
	text := strings.TrimSpace(n.Data)
	if text == "" {
		return false
	}

	if *currentLength+len(text) > maxChars {
		remaining := maxChars - *currentLength
		builder.WriteString(text[:remaining] + "...")
		*currentLength = maxChars
		return true
	}

	builder.WriteString(text)
	*currentLength += len(text)
	return false
}

// emitElementNode writes an element with its preserved attributes and
// recurses into its children.
func emitElementNode(n *html.Node, builder *strings.Builder, currentLength *int, maxChars int, depth int) bool {
	tagName := strings.ToLower(n.Data)

	// Indent block elements for readability
	if depth > 0 && isBlockElement(tagName) {
		builder.WriteString("\n")
		builder.WriteString(strings.Repeat("  ", depth))
	}

	builder.WriteString("<")
	builder.WriteString(tagName)

	for _, attr := range n.Attr {
		if shouldPreserveAttribute(tagName, attr.Key) {
			fmt.Fprintf(builder, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}

	builder.WriteString(">")
	*currentLength += len(tagName) + 2

	truncated := cleanChildren(n, builder, currentLength, maxChars, depth+1)

	if !isVoidElement(tagName) {
		if isBlockElement(tagName) {
			builder.WriteString("\n")
			builder.WriteString(strings.Repeat("  ", depth))
		}
		builder.WriteString("</")
		builder.WriteString(tagName)
		builder.WriteString(">")
		*currentLength += len(tagName) + 3
	}

	return truncated
}

// cleanChildren recursively processes child nodes.
func cleanChildren(n *html.Node, builder *strings.Builder, currentLength *int, maxChars int, depth int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cleanNode(c, builder, currentLength, maxChars, depth) {
			return true
		}
	}
	return false
}

// extractLinks parses rawHTML and collects every anchor with an href,
// resolving relative targets against base. Fragment-only anchors,
// non-web schemes, and duplicate targets are dropped; anchor text is
// whitespace-collapsed.
func extractLinks(rawHTML string, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var links []Link
	seen := make(map[string]bool)

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "a" {
			if link, ok := resolveAnchor(n, base); ok && !seen[link.Href] {
				seen[link.Href] = true
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return links, nil
}

// resolveAnchor turns an anchor node into a Link with an absolute http(s)
// href, reporting false for anchors that carry no usable target.
func resolveAnchor(n *html.Node, base *url.URL) (Link, bool) {
	var href string
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") {
		return Link{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Link{}, false
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return Link{}, false
	}

	return Link{
		Text: collapseWhitespace(nodeText(n)),
		Href: resolved.String(),
	}, true
}

// nodeText concatenates the text content beneath a node.
func nodeText(n *html.Node) string {
	var builder strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return builder.String()
}

// collapseWhitespace trims a string and folds internal whitespace runs
// into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isSkippedElement returns true for elements that should be completely removed.
func isSkippedElement(tagName string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"iframe":   true,
		"embed":    true,
		"object":   true,
		"svg":      true,
	}
	return skipped[tagName]
}

// isBlockElement returns true for block-level elements (for formatting).
func isBlockElement(tagName string) bool {
	blocks := map[string]bool{
		"div":        true,
		"p":          true,
		"section":    true,
		"article":    true,
		"header":     true,
		"footer":     true,
		"nav":        true,
		"main":       true,
		"aside":      true,
		"h1":         true,
		"h2":         true,
		"h3":         true,
		"h4":         true,
		"h5":         true,
		"h6":         true,
		"ul":         true,
		"ol":         true,
		"li":         true,
		"table":      true,
		"tr":         true,
		"td":         true,
		"th":         true,
		"form":       true,
		"fieldset":   true,
		"blockquote": true,
		"pre":        true,
	}
	return blocks[tagName]
}

// isVoidElement returns true for self-closing elements.
func isVoidElement(tagName string) bool {
	voids := map[string]bool{
		"area":   true,
		"base":   true,
		"br":     true,
		"col":    true,
		"embed":  true,
		"hr":     true,
		"img":    true,
		"input":  true,
		"link":   true,
		"meta":   true,
		"param":  true,
		"source": true,
		"track":  true,
		"wbr":    true,
	}
	return voids[tagName]
}

// shouldPreserveAttribute returns true for attributes that are useful for
// analysis and selector targeting.
func shouldPreserveAttribute(tagName, attrName string) bool {
	attrName = strings.ToLower(attrName)

	if isGlobalAttribute(attrName) {
		return true
	}

	// data-* attributes are common JS targeting hooks
	if strings.HasPrefix(attrName, "data-") {
		return true
	}

	return isTagSpecificAttribute(tagName, attrName)
}

// isGlobalAttribute returns true for globally preserved attributes.
func isGlobalAttribute(attrName string) bool {
	globalAttrs := map[string]bool{
		"id":               true,
		"class":            true,
		"role":             true,
		"aria-label":       true,
		"aria-describedby": true,
	}
	return globalAttrs[attrName]
}

// isTagSpecificAttribute returns true for tag-specific preserved attributes.
func isTagSpecificAttribute(tagName, attrName string) bool {
	switch tagName {
	case "a":
		return attrName == "href" || attrName == "target"
	case "img":
		return attrName == "src" || attrName == "alt"
	case "input", "textarea", "select":
		return attrName == "name" || attrName == "type" || attrName == "placeholder" || attrName == "value"
	case "button":
		return attrName == "type" || attrName == "name"
	case "form":
		return attrName == "action" || attrName == "method"
	case "table":
		return attrName == "summary"
	}
	return false
}

// extractTitle extracts the page title from the document.
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

// extractMetaDescription extracts the meta description from the document.
func extractMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if description != "" {
				return
			}
		}
	}
	traverse(doc)
	return description
}
