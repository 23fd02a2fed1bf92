package htmlutil

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// Normalize strips non-printable characters and collapses every run of whitespace
// (including non-breaking spaces) into one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(removeNonPrintable(s)), " ")
}

// Text returns the normalized text of every node in the selection.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return Normalize(buffer.String())
}

// TextNodes returns each non-blank text node under the selection in document order, normalized.
// Markup like <br> or nested cells separates what would otherwise read as one string.
func TextNodes(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		collectTextNodes(n, &out)
	}
	return out
}

func collectTextNodes(node *html.Node, out *[]string) {
	if node.Type == html.TextNode {
		text := Normalize(node.Data)
		if text != "" {
			*out = append(*out, text)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextNodes(child, out)
	}
}

// JoinText joins TextNodes with `sep`.
func JoinText(sel *goquery.Selection, sep string) string {
	return strings.Join(TextNodes(sel), sep)
}

// Field is the result of looking up an optional element, Present distinguishes
// "absent" from "present but empty".
type Field struct {
	Value   string
	Present bool
}

// Lookup finds the first element matching `selector` and returns its normalized text.
func Lookup(root *goquery.Selection, selector string) Field {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return Field{}
	}
	return Field{Value: Text(sel), Present: true}
}

// LookupJoined is Lookup but keeps text nodes apart with `sep`.
func LookupJoined(root *goquery.Selection, selector, sep string) Field {
	sel := root.Find(selector).First()
	if sel.Length() == 0 {
		return Field{}
	}
	return Field{Value: JoinText(sel, sep), Present: true}
}

// TableRows returns the rows that belong to `table` itself, nested tables are ignored.
// The html parser wraps bare rows into a tbody so both placements are covered.
func TableRows(table *goquery.Selection) *goquery.Selection {
	sections := table.ChildrenFiltered("thead, tbody, tfoot")
	return table.ChildrenFiltered("tr").AddSelection(sections.ChildrenFiltered("tr"))
}
