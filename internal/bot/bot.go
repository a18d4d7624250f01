// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"cx-arcade-bot/internal/config"
	"cx-arcade-bot/internal/handler"
	"cx-arcade-bot/internal/pkg/lock"
	"cx-arcade-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot        *tele.Bot
	cfg        *config.Config
	dispatcher *handler.Dispatcher

	// ctx is handed to every command; cancelling it stops pacing waits
	// and lock waits of in-flight commands.
	ctx context.Context
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	AccountService *service.AccountService
	RankingService *service.RankingService
	WagerService   *service.WagerService
	UserLock       *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(ctx context.Context, deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: deps.Config.Bot.PollTimeout},
		OnError: func(err error, c tele.Context) {
			ev := log.Error().Err(err)
			if c != nil && c.Sender() != nil {
				ev = ev.Int64("user_id", c.Sender().ID)
			}
			ev.Msg("Telegram handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	dispatcher, err := NewDispatcher(deps)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		bot:        teleBot,
		cfg:        deps.Config,
		dispatcher: dispatcher,
		ctx:        ctx,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// NewDispatcher builds the command dispatcher with every handler registered.
func NewDispatcher(deps *Dependencies) (*handler.Dispatcher, error) {
	cfg := deps.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	d := handler.NewDispatcher(deps.AccountService, deps.UserLock)
	handler.NewAccountHandler(loc).Register(d)
	handler.NewRankingHandler(deps.RankingService, cfg.Game.TopLimit).Register(d)
	handler.NewGameHandler(deps.WagerService).Register(d)
	handler.NewAdminHandler(deps.AccountService, deps.RankingService).Register(d)
	return d, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware(b.cfg))
}

// registerHandlers registers every dispatcher command with telebot.
func (b *Bot) registerHandlers() {
	for _, name := range b.dispatcher.Commands() {
		b.bot.Handle("/"+name, b.handle)
	}
}

// handle adapts a telebot update to the dispatcher.
func (b *Bot) handle(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	in := handler.Inbound{
		UserID:   sender.ID,
		Username: sender.Username,
		Text:     c.Text(),
	}

	// Dispatch logs and answers command failures itself.
	err := b.dispatcher.Dispatch(b.ctx, in, outbox{c: c})
	if errors.Is(err, handler.ErrUnknownCommand) || errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Int64("user_id", sender.ID).Msg("Update dropped")
	}
	return nil
}

// outbox sends replies to the chat of the update.
type outbox struct {
	c tele.Context
}

func (o outbox) Send(text string) error {
	return o.c.Send(text)
}

func (o outbox) SendMarkdown(text string) error {
	return o.c.Send(text, tele.ModeMarkdown)
}

// Start drops updates that queued up while the bot was offline and starts
// polling. It blocks until Stop is called.
func (b *Bot) Start() {
	if err := b.bot.RemoveWebhook(true); err != nil {
		log.Warn().Err(err).Msg("Failed to drop pending updates")
	}

	log.Info().Strs("commands", b.dispatcher.Commands()).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
