// Package telegram sends fetch summaries and analysis highlights through the
// Telegram Bot API. Messages use MarkdownV2 and are retried with linear backoff.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/fetcher"
	"github.com/rewired-gh/reelstats/internal/logger"
)

// highlightN bounds every list in a report message
const highlightN = 5

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	return newClient(botToken, chatID, maxRetries, retryDelayBase, tgbotapi.APIEndpoint)
}

func newClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration, endpoint string) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport sends the analysis highlights. Only genres with at least
// minGenreMovies movies are listed.
func (c *Client) SendReport(report *analyzer.Report, minGenreMovies int) error {
	return c.send(formatReport(report, minGenreMovies))
}

// SendFetchSummary sends the outcome of a fetch run
func (c *Client) SendFetchSummary(summary *fetcher.Summary) error {
	return c.send(formatFetchSummary(summary))
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Debug("Telegram send failed (attempt %d/%d): %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

func formatFetchSummary(s *fetcher.Summary) string {
	var b strings.Builder
	b.WriteString("🎬 *Fetch run complete*\n\n")
	fmt.Fprintf(&b, "🆕 New: *%s*\n", escapeMarkdownV2(humanize.Comma(int64(s.New))))
	fmt.Fprintf(&b, "⏭ Skipped: %s\n", escapeMarkdownV2(humanize.Comma(int64(s.Skipped))))
	fmt.Fprintf(&b, "⚠️ Failed: %s\n", escapeMarkdownV2(humanize.Comma(int64(s.Failed))))
	fmt.Fprintf(&b, "📚 Total indexed: *%s*\n", escapeMarkdownV2(humanize.Comma(int64(s.Total))))
	fmt.Fprintf(&b, "⏱ Duration: %s\n", escapeMarkdownV2(s.Duration.Round(time.Second).String()))
	fmt.Fprintf(&b, "🔖 Run: `%s`\n", s.RunID)
	return b.String()
}

func formatReport(r *analyzer.Report, minGenreMovies int) string {
	var b strings.Builder
	stats := r.BasicStats

	b.WriteString("📊 *Movie analysis*\n\n")
	fmt.Fprintf(&b, "Movies analyzed: *%s*\n", escapeMarkdownV2(humanize.Comma(int64(stats.TotalMovies))))
	fmt.Fprintf(&b, "Average rating: %s\n", escapeMarkdownV2(fmt.Sprintf("%.2f", stats.AvgRating)))
	fmt.Fprintf(&b, "Average consistency: %s\n", escapeMarkdownV2(fmt.Sprintf("%.2f", stats.AvgConsistency)))
	fmt.Fprintf(&b, "Average engagement: %s\n", escapeMarkdownV2(fmt.Sprintf("%.3f", stats.AvgEngagement)))

	if len(r.RatingConsistency.MostConsistent) > 0 {
		b.WriteString("\n🎯 *Most consistent*\n")
		for i, m := range head(r.RatingConsistency.MostConsistent) {
			fmt.Fprintf(&b, "%d\\. %s \\(%s\\) σ %s\n", i+1,
				escapeMarkdownV2(m.Title), escapeMarkdownV2(strconv.Itoa(m.Year)),
				escapeMarkdownV2(fmt.Sprintf("%.2f", m.Score)))
		}
	}

	genreLines := 0
	for _, g := range r.GenreImpact {
		if g.MovieCount < minGenreMovies {
			continue
		}
		if genreLines == 0 {
			b.WriteString("\n🎭 *Genres*\n")
		}
		genreLines++
		fmt.Fprintf(&b, "• %s: %s avg, %s movies\n",
			escapeMarkdownV2(g.Genre),
			escapeMarkdownV2(fmt.Sprintf("%.2f", g.AvgRating)),
			escapeMarkdownV2(humanize.Comma(int64(g.MovieCount))))
	}

	if len(r.TopMovies) > 0 {
		b.WriteString("\n🏆 *Top success index*\n")
		for i, m := range head(r.TopMovies) {
			fmt.Fprintf(&b, "%d\\. %s \\(%s\\) %s\n", i+1,
				escapeMarkdownV2(m.Title), escapeMarkdownV2(strconv.Itoa(m.Year)),
				escapeMarkdownV2(fmt.Sprintf("%.3f", m.Score)))
		}
	}

	return b.String()
}

func head(ranked []analyzer.RankedMovie) []analyzer.RankedMovie {
	if len(ranked) > highlightN {
		return ranked[:highlightN]
	}
	return ranked
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
