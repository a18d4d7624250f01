package handler

import (
	"context"
	"fmt"
	"time"

	"cx-arcade-bot/internal/model"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	loc *time.Location
}

// NewAccountHandler creates a new AccountHandler. Timestamps are rendered in loc.
func NewAccountHandler(loc *time.Location) *AccountHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AccountHandler{loc: loc}
}

// Register binds the account commands to d.
func (h *AccountHandler) Register(d *Dispatcher) {
	d.Register("start", h.HandleStart)
	d.Register("profile", h.HandleProfile)
	d.Register("balance", h.HandleBalance)
	d.Register("myid", h.HandleMyID)
	d.Register("debug", h.HandleDebug)
}

// HandleStart handles the /start command.
// New accounts get an extra greeting with their internal id.
func (h *AccountHandler) HandleStart(_ context.Context, req *Request) error {
	a := req.Account
	if req.Created {
		if err := req.Out.Send(fmt.Sprintf(
			"🎮 Welcome to cx.Arcade!\n📋 Your ID in the system: %d", a.InternalID,
		)); err != nil {
			return err
		}
	}

	return req.Out.Send(fmt.Sprintf(
		"🎮 Welcome to cx.Arcade!\n\n"+
			"📋 Your profile:\n"+
			"👤 System ID: %d\n"+
			"💰 Balance: %d$\n"+
			"⭐ Status: %s\n\n"+
			"%s",
		a.InternalID, a.Balance, a.Role, commandList,
	))
}

// HandleProfile handles the /profile command.
func (h *AccountHandler) HandleProfile(_ context.Context, req *Request) error {
	a := req.Account

	lastGame := "never"
	if a.LastGameAt > 0 {
		lastGame = formatDateTime(a.LastGameAt, h.loc)
	}

	msg := "📋 *PLAYER PROFILE*\n\n"
	msg += fmt.Sprintf("👤 *System ID:* `%d`\n", a.InternalID)
	msg += fmt.Sprintf("👑 *Status:* %s\n", a.Role)
	msg += fmt.Sprintf("💰 *Balance:* `%d$`\n", a.Balance)
	msg += fmt.Sprintf("🕐 *Last game:* %s\n", lastGame)
	msg += fmt.Sprintf("📅 *Registered:* %s\n", formatDate(a.CreatedAt, h.loc))

	if name := a.Name(); name != "" {
		msg += fmt.Sprintf("\n📱 *Telegram:* %s", escapeMarkdown(atHandle(name)))
	}
	msg += fmt.Sprintf("\n🔢 *Telegram ID:* `%d`", a.ExternalID)

	if a.IsCreator() {
		msg += "\n\n⭐ *cx.Arcade Founder* ⭐"
	} else {
		msg += fmt.Sprintf("\n\n🏅 *Tier:* %s", tierLabel(model.TierFor(a.Balance)))
	}

	return req.Out.SendMarkdown(msg)
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(_ context.Context, req *Request) error {
	return req.Out.Send(fmt.Sprintf("💰 Your balance: %d$", req.Account.Balance))
}

// HandleMyID handles the /myid command.
func (h *AccountHandler) HandleMyID(_ context.Context, req *Request) error {
	return req.Out.SendMarkdown(fmt.Sprintf(
		"📱 Your Telegram ID: `%d`\n📋 Your ID in the system: `%d`",
		req.Account.ExternalID, req.Account.InternalID,
	))
}

// HandleDebug handles the /debug command: a dump of every stored field.
func (h *AccountHandler) HandleDebug(_ context.Context, req *Request) error {
	a := req.Account

	name := a.Name()
	if name == "" {
		name = "not set"
	}

	return req.Out.Send(fmt.Sprintf(
		"Your data:\n"+
			"📋 System ID: %d\n"+
			"🔢 Telegram ID: %d\n"+
			"👤 Username: %s\n"+
			"💰 Balance: %d$\n"+
			"🕐 Last game: %d\n"+
			"⭐ Status: %s\n"+
			"📅 Registered: %s",
		a.InternalID, a.ExternalID, name, a.Balance, a.LastGameAt, a.Role,
		formatDateTime(a.CreatedAt, h.loc),
	))
}
