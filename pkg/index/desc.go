package index

import (
	"fmt"
	"html"
	"strings"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// linkResolver maps an application id referenced from a description to a
// link target and display text. It fails when the id is not in the catalog.
type linkResolver func(appid string) (href, text string, err error)

// renderDescription converts catalog description text into the HTML carried
// by the indexes. The format is paragraphs separated by blank lines, bullet
// lines starting with "* ", inline links "[url]" / "[url text]" and
// intra-catalog references "[[appid]]".
func renderDescription(text string, resolve linkResolver) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	var out strings.Builder
	var para []string
	inList := false

	flushPara := func() error {
		if len(para) == 0 {
			return nil
		}
		rendered, err := renderInline(strings.Join(para, " "), resolve)
		if err != nil {
			return err
		}
		out.WriteString("<p>" + rendered + "</p>")
		para = nil
		return nil
	}
	closeList := func() {
		if inList {
			out.WriteString("</ul>")
			inList = false
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			if err := flushPara(); err != nil {
				return "", err
			}
			closeList()
		case strings.HasPrefix(line, "* "):
			if err := flushPara(); err != nil {
				return "", err
			}
			if !inList {
				out.WriteString("<ul>")
				inList = true
			}
			rendered, err := renderInline(strings.TrimPrefix(line, "* "), resolve)
			if err != nil {
				return "", err
			}
			out.WriteString("<li>" + rendered + "</li>")
		default:
			closeList()
			para = append(para, line)
		}
	}
	if err := flushPara(); err != nil {
		return "", err
	}
	closeList()

	return out.String(), nil
}

func renderInline(text string, resolve linkResolver) (string, error) {
	var out strings.Builder
	for {
		start := strings.Index(text, "[")
		if start < 0 {
			out.WriteString(html.EscapeString(text))
			return out.String(), nil
		}
		out.WriteString(html.EscapeString(text[:start]))
		rest := text[start:]

		if strings.HasPrefix(rest, "[[") {
			end := strings.Index(rest, "]]")
			if end < 0 {
				out.WriteString(html.EscapeString(rest))
				return out.String(), nil
			}
			appid := rest[2:end]
			href, linkText, err := resolve(appid)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&out, `<a href="%s">%s</a>`,
				html.EscapeString(href), html.EscapeString(linkText))
			text = rest[end+2:]
			continue
		}

		end := strings.Index(rest, "]")
		if end < 0 {
			out.WriteString(html.EscapeString(rest))
			return out.String(), nil
		}
		link := rest[1:end]
		href, linkText := link, link
		if idx := strings.IndexAny(link, " \t"); idx >= 0 {
			href = link[:idx]
			linkText = strings.TrimSpace(link[idx+1:])
		}
		fmt.Fprintf(&out, `<a href="%s">%s</a>`,
			html.EscapeString(href), html.EscapeString(linkText))
		text = rest[end+1:]
	}
}

// catalogResolver resolves intra-catalog references against the full app
// set, failing loudly when a referenced identifier is absent.
func catalogResolver(apps map[string]*models.App) linkResolver {
	return func(appid string) (string, string, error) {
		app, ok := apps[appid]
		if !ok {
			return "", "", muerrors.NewCatalogError("BAD_APP_REFERENCE",
				fmt.Sprintf("cannot resolve app id %s", appid))
		}
		return "fdroid.app:" + appid, app.DisplayName(), nil
	}
}
