package handler

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cx-arcade-bot/internal/model"
)

const (
	msgFailure    = "❌ Something went wrong, please try again later"
	msgOnlyOwner  = "❌ This command is available to the creator only!"
	msgNoPlayers  = "📊 No players in the ranking yet"
	msgUsageGame  = "Usage: /game <amount> <number from 1 to 6>"
	msgUsageBet   = "Usage: /casino <amount>"
	msgBadAmount  = "Enter a number for the amount!"
	msgZeroAmount = "The amount must be greater than 0!"
	msgTooLarge   = "The amount is too large!"
	msgBadGuess   = "The number must be from 1 to 6!"
	msgUnknownArg = "❌ Unknown argument. Use: money or user"
)

const commandList = `📜 Available commands:
/profile - view your profile
/balance - view your balance
/casino <amount> - place a bet
/game <amount> <number> - guess the number
/top - top 5 players by balance
/myid - show your Telegram ID`

const adminHelp = `👑 *CREATOR COMMANDS*

📊 *Statistics:*
/stats - bot statistics
/top - top 5 players

📋 *Profile:*
/profile - your profile
/debug - technical information

🎮 *Games:*
/casino <amount> - play the casino
/game <amount> <number> - guess the number

💰 *Balance:*
/balance - your balance
/secret\_bonus\_admin money - get %s$ (creator only)

📱 *Info:*
/myid - your ID`

const bonusHelp = `Only the creator of the bot and the people they told know about this bonus

This bonus gives you a choice of commands:
1) /secret_bonus_admin money - gives you %s$
2) /secret_bonus_admin user - shows the creator's username`

var medals = []string{"🥇", "🥈", "🥉", "4️⃣", "5️⃣"}

// medal returns the leaderboard marker for a zero-based position.
func medal(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

// tierLabel renders a tier for the profile.
func tierLabel(t model.Tier) string {
	switch t {
	case model.TierWhale:
		return "🐋 WHALE"
	case model.TierMillionaire:
		return "💰 MILLIONAIRE"
	case model.TierPlayer:
		return "🎮 PLAYER"
	case model.TierHobo:
		return "🎯 HOBO"
	default:
		return "none"
	}
}

// leaderboardName returns the name shown in /top. Accounts without a
// username are shown as Player_<internal id>; long names are shortened.
func leaderboardName(a *model.Account) string {
	name := a.Name()
	if name == "" {
		return fmt.Sprintf("Player_%d", a.InternalID)
	}
	return truncateName(name)
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= 15 {
		return name
	}
	return string([]rune(name)[:12]) + "..."
}

// atHandle renders a username as @handle.
func atHandle(name string) string {
	return "@" + strings.TrimPrefix(name, "@")
}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// escapeMarkdown escapes user supplied text for legacy Markdown.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// formatDateTime renders a unix timestamp as dd.mm.yyyy hh:mm.
func formatDateTime(ts int64, loc *time.Location) string {
	return time.Unix(ts, 0).In(loc).Format("02.01.2006 15:04")
}

// formatDate renders a unix timestamp as dd.mm.yyyy.
func formatDate(ts int64, loc *time.Location) string {
	return time.Unix(ts, 0).In(loc).Format("02.01.2006")
}

// formatAmount renders a bonus style amount with dot separators: 1.000.000.
func formatAmount(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
