package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// simpleSelector 單一選擇器段（tag、#id、.class、[attr=val] 的組合）
type simpleSelector struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
}

// querySelectorAll 回傳符合選擇器的所有節點
// 支援的子集：tag、.class、#id、tag.class、tag#id、tag[attr]、tag[attr=val]
// 逗號分隔為選擇器列表，空白分隔為後代組合
func querySelectorAll(doc *html.Node, selector string) []*html.Node {
	var results []*html.Node
	for _, alt := range strings.Split(selector, ",") {
		parts := strings.Fields(alt)
		if len(parts) == 0 {
			continue
		}

		matches := matchSimple(doc, parts[0])
		for i := 1; i < len(parts); i++ {
			var next []*html.Node
			for _, parent := range matches {
				next = append(next, matchSimple(parent, parts[i])...)
			}
			matches = next
		}
		results = append(results, matches...)
	}
	return results
}

// matchSimple 找出符合單一選擇器段的所有節點
func matchSimple(root *html.Node, sel string) []*html.Node {
	m := parseSimpleSelector(sel)
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if matchesSelector(n, m) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// parseSimpleSelector 解析 "tag.class"、"#id"、"tag[attr=val]" 等格式
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eqIdx := strings.IndexByte(attrPart, '='); eqIdx >= 0 {
			s.attrKey = attrPart[:eqIdx]
			s.attrVal = strings.Trim(attrPart[eqIdx+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}

	s.tag = sel
	return s
}

// matchesSelector 檢查節點是否符合選擇器段
func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}

	if s.tag != "" && n.Data != s.tag {
		return false
	}

	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}

	if s.class != "" {
		found := false
		for _, c := range strings.Fields(getAttr(n, "class")) {
			if c == s.class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if s.attrKey != "" {
		if s.attrVal != "" {
			if getAttr(n, s.attrKey) != s.attrVal {
				return false
			}
		} else if !hasAttr(n, s.attrKey) {
			return false
		}
	}

	return true
}

// removeMatching 從樹中移除符合選擇器的節點
func removeMatching(doc *html.Node, selector string) {
	for _, n := range querySelectorAll(doc, selector) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// renderNodes 將節點序列化回 HTML
func renderNodes(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		_ = html.Render(&sb, n)
		sb.WriteString("\n")
	}
	return sb.String()
}

// getAttr 取得節點屬性值
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasAttr 檢查節點是否帶有指定屬性
func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
