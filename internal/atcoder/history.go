package atcoder

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/atcpro/atcpro/pkg/models"
)

const historyDateLayout = "2006/01/02 15:04:05"

// AtCoder publishes contest times in JST.
var jst = time.FixedZone("JST", 9*60*60)

var (
	rowSelector  = cascadia.MustCompile("tr")
	cellSelector = cascadia.MustCompile("td")
	linkSelector = cascadia.MustCompile("a[href]")
)

// ParseHistory extracts the n most recent contest participations from a user
// history page, most recent first. Rows with fewer than six cells are ignored.
func ParseHistory(page []byte, n int) ([]models.ContestHistoryEntry, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse history page: %w", err)
	}

	rows := rowSelector.MatchAll(doc)
	entries := make([]models.ContestHistoryEntry, 0, n)
	for i := len(rows) - 1; i >= 0; i-- {
		cells := cellSelector.MatchAll(rows[i])
		if len(cells) < 6 {
			continue
		}

		entry, ok := parseHistoryRow(cells)
		if !ok {
			continue
		}
		entries = append(entries, entry)
		if n > 0 && len(entries) >= n {
			break
		}
	}
	return entries, nil
}

func parseHistoryRow(cells []*html.Node) (models.ContestHistoryEntry, bool) {
	var entry models.ContestHistoryEntry

	dateText := Attr(cells[0], "data-order")
	if dateText == "" {
		dateText = strings.TrimSpace(TextContent(cells[0]))
	}
	date, err := parseHistoryDate(dateText)
	if err != nil {
		return entry, false
	}
	entry.Date = date

	link := linkSelector.MatchFirst(cells[1])
	if link == nil {
		return entry, false
	}
	entry.ContestID = path.Base(strings.TrimRight(Attr(link, "href"), "/"))

	entry.Rank = strings.TrimSpace(TextContent(cells[2]))
	entry.Performance = strings.TrimSpace(TextContent(cells[3]))
	entry.Rating = parseOptionalInt(TextContent(cells[4]))
	entry.Diff = parseOptionalInt(TextContent(cells[5]))
	return entry, true
}

func parseHistoryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(historyDateLayout, s, jst); err == nil {
		return t, nil
	}
	// The visible cell text carries a zone offset, e.g. "2023-04-22 22:40:00+0900".
	return time.Parse("2006-01-02 15:04:05-0700", s)
}

// parseOptionalInt returns nil for "-" and anything that is not an integer.
func parseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
