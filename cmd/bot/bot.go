// Package bot wires Telegram updates to the extraction and download layers:
// a URL message becomes an inline keyboard of renditions, and a button press
// runs one download job end to end.
package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telegrab/telegrab/internals/config"
	"github.com/telegrab/telegrab/internals/downloader"
	"github.com/telegrab/telegrab/internals/extractor"
	"github.com/telegrab/telegrab/internals/progress"
	"github.com/telegrab/telegrab/internals/registry"
)

var urlPattern = regexp.MustCompile(`^https?://`)

const greeting = "👋 *Video Downloader Bot*\nSend a video URL to download."

type Bot struct {
	api      *tgbotapi.BotAPI
	registry *registry.Registry
	orch     *downloader.Orchestrator
	extract  extractor.Extractor
	log      *slog.Logger
}

func New(api *tgbotapi.BotAPI, cfg config.Config, log *slog.Logger) *Bot {
	cookiePath := cfg.CookiePath()
	return &Bot{
		api:      api,
		registry: registry.New(),
		orch:     downloader.New(cookiePath),
		extract:  extractor.Extractor{CookieFile: cookiePath},
		log:      log,
	}
}

// Run consumes updates until the channel closes. Extraction and download
// work runs on per-job goroutines so the loop stays responsive.
func (b *Bot) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			b.handleCallback(update.CallbackQuery)
		case update.Message != nil && update.Message.IsCommand():
			if update.Message.Command() == "start" {
				b.reply(update.Message, greeting)
			}
		case update.Message != nil && urlPattern.MatchString(strings.TrimSpace(update.Message.Text)):
			b.handleURL(update.Message)
		}
	}
}

func (b *Bot) handleURL(msg *tgbotapi.Message) {
	url := strings.TrimSpace(msg.Text)
	status := b.reply(msg, "🔍 Scanning formats...")
	if status == nil {
		return
	}

	go func() {
		info, err := b.extract.Probe(url)
		if err != nil {
			b.log.Warn("probe failed", "url", url, "error", err)
			b.edit(msg.Chat.ID, status.MessageID, fmt.Sprintf("❌ Error:\n`%s`", err))
			return
		}

		title, candidates := extractor.Normalize(url, info)
		if len(candidates) == 0 {
			b.edit(msg.Chat.ID, status.MessageID, "❌ No downloadable formats found.")
			return
		}

		var rows [][]tgbotapi.InlineKeyboardButton
		for _, c := range candidates {
			token := b.registry.Register(c)
			btn := tgbotapi.NewInlineKeyboardButtonData(c.Label, token)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
		}

		edit := tgbotapi.NewEditMessageTextAndMarkup(
			msg.Chat.ID, status.MessageID,
			fmt.Sprintf("🎬 *%s*\nSelect a resolution or audio:", title),
			tgbotapi.NewInlineKeyboardMarkup(rows...),
		)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(edit); err != nil {
			b.log.Warn("keyboard edit failed", "error", err)
		}
	}()
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Warn("callback answer failed", "error", err)
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	statusID := query.Message.MessageID

	candidate, ok := b.registry.Consume(query.Data)
	if !ok {
		b.edit(chatID, statusID, "⚠️ Invalid or expired selection.")
		return
	}

	b.edit(chatID, statusID, "📥 Starting download...")
	go b.runJob(chatID, statusID, candidate)
}

// runJob is the job boundary: any failure is rendered to the chat and never
// propagates, and the status message is deleted on every exit path.
func (b *Bot) runJob(chatID int64, statusID int, candidate extractor.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("job panicked", "title", candidate.Title, "panic", r)
			b.send(chatID, fmt.Sprintf("❌ Failed:\n`%v`", r))
		}
	}()
	defer b.deleteMessage(chatID, statusID)

	workDir, err := os.MkdirTemp("", "telegrab-*")
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Failed:\n`%s`", err))
		return
	}

	reporter := progress.NewReporter(func(text string) error {
		edit := tgbotapi.NewEditMessageText(chatID, statusID, text)
		edit.ParseMode = tgbotapi.ModeMarkdown
		_, err := b.api.Send(edit)
		return err
	})

	job := downloader.Job{Candidate: candidate, WorkDir: workDir, Progress: reporter}
	err = b.orch.Run(job, func(path string) error {
		return b.uploadFile(chatID, candidate, path, reporter)
	})

	switch {
	case err == nil:
		b.log.Info("job complete", "title", candidate.Title)
	case errors.Is(err, downloader.ErrSizeLimit):
		b.send(chatID, "⚠️ File exceeds 2GB limit. Try a lower resolution.")
	default:
		b.log.Warn("job failed", "title", candidate.Title, "error", err)
		b.send(chatID, fmt.Sprintf("❌ Failed:\n`%s`", err))
	}
}

// uploadFile streams the staged file to the chat with upload progress fed
// back through the reporter.
func (b *Bot) uploadFile(chatID int64, candidate extractor.Candidate, path string, sink progress.Sink) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	reader := tgbotapi.FileReader{
		Name: filepath.Base(path),
		Reader: &progress.Reader{
			Source: file,
			Total:  stat.Size(),
			Sink:   sink,
			Phase:  progress.PhaseUploading,
		},
	}

	var msg tgbotapi.Chattable
	if candidate.Kind == extractor.KindAudio {
		audio := tgbotapi.NewAudio(chatID, reader)
		audio.Caption = fmt.Sprintf(
			"🎧 *%s*\n- Bitrate: `%.0f kbps`\n- Duration: `%s`\n- Size: `%s`",
			candidate.Title, candidate.ABR,
			extractor.FormatDuration(candidate.Duration),
			extractor.FormatSize(candidate.Size),
		)
		audio.ParseMode = tgbotapi.ModeMarkdown
		msg = audio
	} else {
		video := tgbotapi.NewVideo(chatID, reader)
		video.Caption = fmt.Sprintf("✅ *%s*\nHere is your file 🎬", candidate.Title)
		video.ParseMode = tgbotapi.ModeMarkdown
		msg = video
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func (b *Bot) reply(to *tgbotapi.Message, text string) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(to.Chat.ID, text)
	msg.ReplyToMessageID = to.MessageID
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Warn("reply failed", "error", err)
		return nil
	}
	return &sent
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send failed", "error", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("edit failed", "error", err)
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Warn("delete failed", "error", err)
	}
}
