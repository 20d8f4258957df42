package editorial

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/atcpro/atcpro/internal/atcoder"
	"github.com/atcpro/atcpro/pkg/models"
)

var (
	mainContainerSelector = cascadia.MustCompile("div#main-container")
	navTabsSelector       = cascadia.MustCompile("div#contest-nav-tabs")
	clearfixSelector      = cascadia.MustCompile("div.clearfix")
	preSelector           = cascadia.MustCompile("pre")
)

// Extract pulls the prose and code blocks out of an editorial page. It
// returns nil, without error, when the page lacks the expected layout; such a
// problem is recorded as unavailable rather than retried.
func Extract(page []byte) (*models.Editorial, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse editorial page: %w", err)
	}

	content := mainContainerSelector.MatchFirst(doc)
	if content == nil {
		return nil, nil
	}
	navTabs := navTabsSelector.MatchFirst(content)
	if navTabs == nil {
		return nil, nil
	}
	atcoder.Detach(navTabs)

	// the footer clearfix is searched only after the tabs, which carry their own, are gone
	clearfix := clearfixSelector.MatchFirst(content)
	if clearfix == nil {
		return nil, nil
	}
	atcoder.Detach(clearfix)

	codes := make([]string, 0)
	for _, pre := range preSelector.MatchAll(content) {
		// nested <pre> blocks were already taken with their parent
		if !within(pre, content) {
			continue
		}
		codes = append(codes, strings.TrimSpace(atcoder.TextContent(pre)))
		atcoder.Detach(pre)
	}

	return &models.Editorial{
		Text:  strings.TrimSpace(atcoder.TextContent(content)),
		Codes: codes,
	}, nil
}

func within(n, root *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
