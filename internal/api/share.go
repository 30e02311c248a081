package api

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"thefinder/server/internal/database"
	"thefinder/server/internal/models"
)

const (
	siteName             = "TheFinder"
	maxOGDescriptionRune = 300
)

var metaTemplate = template.Must(template.New("meta").Parse(`<title>{{.Title}}</title>
<meta property="og:site_name" content="{{.SiteName}}">
<meta property="og:type" content="website">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
{{if .Image}}<meta property="og:image" content="{{.Image}}">
{{end}}<meta property="og:url" content="{{.URL}}">
<meta name="twitter:card" content="summary_large_image">
`))

var fallbackShell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="he" dir="rtl">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{.Meta}}
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .SourceURL}}<p><a href="{{.SourceURL}}">{{.SourceURL}}</a></p>{{end}}
</body>
</html>
`))

type shareMeta struct {
	SiteName    string
	Title       string
	Description string
	Image       string
	URL         string
	SourceURL   string
	Meta        template.HTML
}

// sharePage renders listing pages with Open Graph tags for link previews.
// When an index.html is configured the tags are injected into its head.
type sharePage struct {
	index     string
	publicURL string
	minifier  *minify.M
}

func newSharePage(indexPath, publicURL string) (*sharePage, error) {
	page := &sharePage{publicURL: strings.TrimRight(publicURL, "/")}
	if indexPath != "" {
		data, err := os.ReadFile(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read index html: %w", err)
		}
		if !strings.Contains(string(data), "</head>") {
			return nil, errors.New("index html has no </head>")
		}
		page.index = string(data)
	}

	page.minifier = minify.New()
	page.minifier.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return page, nil
}

func (p *sharePage) metaFor(listing *models.Listing, path string) shareMeta {
	meta := shareMeta{
		SiteName: siteName,
		Title:    siteName,
		URL:      p.publicURL + path,
	}
	if listing == nil {
		return meta
	}
	if listing.Description != "" {
		meta.Title = listing.Description
	}
	meta.Description = truncateRunes(listing.DetailedDescription, maxOGDescriptionRune)
	meta.Image = listing.MainImage()
	meta.SourceURL = listing.URL
	return meta
}

// render builds the page of a listing, or the generic page when listing is nil.
func (p *sharePage) render(listing *models.Listing, path string) ([]byte, error) {
	meta := p.metaFor(listing, path)

	var tags bytes.Buffer
	if err := metaTemplate.Execute(&tags, meta); err != nil {
		return nil, fmt.Errorf("failed to render meta tags: %w", err)
	}

	var page bytes.Buffer
	if p.index != "" {
		head := stripTitle(p.index)
		idx := strings.Index(head, "</head>")
		page.WriteString(head[:idx])
		page.Write(tags.Bytes())
		page.WriteString(head[idx:])
	} else {
		meta.Meta = template.HTML(tags.String())
		if err := fallbackShell.Execute(&page, meta); err != nil {
			return nil, fmt.Errorf("failed to render share page: %w", err)
		}
	}

	minified, err := p.minifier.Bytes("text/html", page.Bytes())
	if err != nil {
		return page.Bytes(), nil
	}
	return minified, nil
}

// stripTitle drops the static <title> so the listing title wins.
func stripTitle(doc string) string {
	start := strings.Index(doc, "<title>")
	if start < 0 {
		return doc
	}
	end := strings.Index(doc[start:], "</title>")
	if end < 0 {
		return doc
	}
	return doc[:start] + doc[start+end+len("</title>"):]
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// ShareListing serves the HTML page behind a shared listing link.
func (h *Handler) ShareListing(c *gin.Context) {
	postID := c.Param("postId")
	status := http.StatusOK

	listing, err := h.db.GetListingByPostID(c.Request.Context(), postID)
	if errors.Is(err, database.ErrNotFound) {
		status = http.StatusNotFound
		listing = nil
	} else if err != nil {
		h.logger.WithError(err).WithField("post_id", postID).Error("Failed to get shared listing")
		status = http.StatusInternalServerError
		listing = nil
	}

	body, err := h.share.render(listing, c.Request.URL.Path)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render share page")
		c.String(http.StatusInternalServerError, "Failed to render page")
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}
