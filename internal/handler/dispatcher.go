// Package handler provides the bot's command handlers.
//
// Handlers do not depend on the Telegram client: the Dispatcher receives an
// Inbound message, makes sure the sender has an account, holds the sender's
// lock for the whole command and writes replies to an Outbox in order.
package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"cx-arcade-bot/internal/model"
	"cx-arcade-bot/internal/pkg/lock"
	"cx-arcade-bot/internal/service"
)

// ErrUnknownCommand is returned by Dispatch for text that names no registered command.
var ErrUnknownCommand = errors.New("unknown command")

// Inbound is one message addressed to the bot.
type Inbound struct {
	UserID   int64
	Username string // Telegram username, empty when the user has none
	Text     string
}

// Outbox delivers replies to the chat the message came from, in call order.
type Outbox interface {
	Send(text string) error
	// SendMarkdown sends text rendered with Telegram's legacy Markdown.
	SendMarkdown(text string) error
}

// Request is what a command handler works on. Account is loaded (or
// created) under the sender's lock before the handler runs.
type Request struct {
	Inbound
	Account *model.Account
	Created bool
	Args    []string
	Out     Outbox
}

// CommandFunc handles one command. Validation problems are answered with a
// reply and a nil error; a returned error aborts the command with a
// generic failure reply.
type CommandFunc func(ctx context.Context, req *Request) error

// Dispatcher routes inbound messages to registered commands.
type Dispatcher struct {
	accountService *service.AccountService
	userLock       *lock.UserLock
	commands       map[string]CommandFunc
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(accountService *service.AccountService, userLock *lock.UserLock) *Dispatcher {
	return &Dispatcher{
		accountService: accountService,
		userLock:       userLock,
		commands:       make(map[string]CommandFunc),
	}
}

// Register binds a command name (without the leading slash) to fn.
func (d *Dispatcher) Register(name string, fn CommandFunc) {
	d.commands[name] = fn
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseCommand splits a message into a command name and its arguments.
// The leading slash and an optional @botname suffix are removed from the
// first field. ok is false when the text is not a command.
func ParseCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}

	name = strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil, false
	}
	return name, fields[1:], true
}

// Dispatch handles one inbound message end to end.
func (d *Dispatcher) Dispatch(ctx context.Context, in Inbound, out Outbox) error {
	name, args, ok := ParseCommand(in.Text)
	if !ok {
		return ErrUnknownCommand
	}
	fn, ok := d.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	if err := d.userLock.LockContext(ctx, in.UserID); err != nil {
		return fmt.Errorf("failed to acquire user lock: %w", err)
	}
	defer d.userLock.Unlock(in.UserID)

	var username *string
	if in.Username != "" {
		u := in.Username
		username = &u
	}

	acct, created, err := d.accountService.EnsureAccount(ctx, in.UserID, username)
	if err != nil {
		log.Error().Err(err).Int64("user_id", in.UserID).Str("command", name).Msg("Failed to load account")
		_ = out.Send(msgFailure)
		return err
	}

	req := &Request{
		Inbound: in,
		Account: acct,
		Created: created,
		Args:    args,
		Out:     out,
	}
	if err := fn(ctx, req); err != nil {
		log.Error().Err(err).Int64("user_id", in.UserID).Str("command", name).Msg("Command failed")
		_ = out.Send(msgFailure)
		return err
	}
	return nil
}
