// Package genius scrapes song pages on genius.com as a last-resort lyric
// source. Page URLs are guessed by slugifying artist and title, which is a
// best-effort heuristic: the guess can be wrong and the page layout can
// change under us, so every failure here degrades to a clean miss and is
// never surfaced as an error.
package genius

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"lyricsync/pkg/music"
)

var logger = log.With().Str("component", "genius").Logger()

const (
	DefaultBaseURL = "https://genius.com"

	// Genius marks lyric blocks with this data attribute.
	lyricsSelector = `div[data-lyrics-container="true"]`
)

// Client fetches and scrapes genius.com lyric pages. Plain text only; this
// path never yields timing information.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

func (c *Client) Name() string { return "genius-scrape" }

// Resolve guesses the song's page URL and extracts the lyric containers as
// plain text. Any failure along the way is a clean miss.
func (c *Client) Resolve(ctx context.Context, song music.Song, _ float64) (*music.Record, error) {
	slug := Slug(song.Artist, song.Title)
	if slug == "" {
		return nil, nil
	}
	pageURL := fmt.Sprintf("%s/%s-lyrics", c.baseURL, slug)

	doc, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		logger.Warn().Err(err).Str("url", pageURL).Msg("Genius page fetch failed")
		return nil, nil
	}

	containers := doc.Find(lyricsSelector)
	if containers.Length() == 0 {
		logger.Info().Str("url", pageURL).Msg("No lyrics container on Genius page")
		return nil, nil
	}

	var b strings.Builder
	containers.Each(func(_ int, s *goquery.Selection) {
		inner, err := s.Html()
		if err != nil {
			return
		}
		b.WriteString(htmlToText(inner))
		b.WriteString("\n")
	})

	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, nil
	}

	logger.Info().
		Str("title", song.Title).
		Str("artist", song.Artist).
		Str("url", pageURL).
		Msg("Scraped lyrics from Genius")
	return &music.Record{PlainLyrics: text}, nil
}

func (c *Client) fetchPage(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("genius returned status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

var (
	parenthetical = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]\s*`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
	brTag         = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
)

// Slug guesses the genius.com path segment for a song, e.g.
// ("Daft Punk", "One More Time (radio edit)") -> "Daft-punk-one-more-time".
// Bracketed qualifiers are dropped since Genius page slugs omit them.
func Slug(artist, title string) string {
	s := strings.ToLower(artist + " " + title)
	s = parenthetical.ReplaceAllString(s, " ")
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// htmlToText flattens a lyric container's inner HTML: <br> becomes a
// newline, every other tag is dropped, entities are unescaped.
func htmlToText(inner string) string {
	inner = brTag.ReplaceAllString(inner, "\n")
	inner = anyTag.ReplaceAllString(inner, "")
	return html.UnescapeString(inner)
}
