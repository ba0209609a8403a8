// Package extract pulls the title and visible body text out of HTML
// documents.
package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

type Page struct {
	Title string
	Body  string
}

// Text is the whole visible text of the page, title first.
func (p Page) Text() string {
	if p.Title == "" {
		return p.Body
	}
	return p.Title + " " + p.Body
}

// HTML parses r and returns the <title> text and the text of <body>, with
// runs of whitespace collapsed to single spaces. Text inside script, style,
// noscript and template elements is skipped.
func HTML(r io.Reader) (Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", apperrors.ErrExtractionFailed, err)
	}

	var title, body []string
	var walk func(n *html.Node, inTitle, inBody bool)
	walk = func(n *html.Node, inTitle, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.Title:
				inTitle = true
			case atom.Body:
				inBody = true
			}
		}
		if n.Type == html.TextNode {
			switch {
			case inTitle:
				title = append(title, n.Data)
			case inBody:
				body = append(body, n.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inTitle, inBody)
		}
	}
	walk(root, false, false)

	return Page{
		Title: collapse(title),
		Body:  collapse(body),
	}, nil
}

// File extracts the HTML document at path.
func File(path string) (Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", apperrors.ErrExtractionFailed, err)
	}
	defer f.Close()

	page, err := HTML(f)
	if err != nil {
		return Page{}, fmt.Errorf("extracting %s: %w", path, err)
	}
	return page, nil
}

func collapse(parts []string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
