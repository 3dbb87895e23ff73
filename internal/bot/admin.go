package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kenyap/quotabot/internal/config"
	"github.com/kenyap/quotabot/internal/ledger"
)

// isAdmin checks the caller's tier in the ledger.
func (b *Bot) isAdmin(ctx context.Context, userID int64) bool {
	account, ok := b.ledger.GetUser(ctx, userID)
	return ok && account.Tier == ledger.TierAdmin
}

func (b *Bot) handleAdminCommand(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(ctx, userID) {
		b.send(ctx, chatID, "⛔ You don't have admin privileges to use this command.")
		return
	}
	b.showAdminDashboard(ctx, chatID, 0)
}

func (b *Bot) adminDashboardText(ctx context.Context) string {
	counts := b.ledger.UserCounts(ctx)
	active := b.ledger.ActiveUsers(ctx, config.DefaultActiveWindowDays)
	totalCost := b.ledger.TotalCost(ctx)
	ops := b.metrics.Stats()

	return fmt.Sprintf(
		"🔐 Admin Dashboard\n\n"+
			"Users: %d total\n"+
			"• %d free\n"+
			"• %d premium\n"+
			"• %d admin\n\n"+
			"Active in last %d days: %d\n"+
			"Total API Cost: $%.2f\n\n"+
			"Bot uptime: %s | messages: %d | denials: %d | dispatch errors: %d\n\n"+
			"Select an option:",
		counts.Total, counts.Free, counts.Premium, counts.Admin,
		config.DefaultActiveWindowDays, active, totalCost,
		ops.Uptime, ops.Messages, ops.Denials, ops.DispatchFailures)
}

func (b *Bot) showAdminDashboard(ctx context.Context, chatID, messageID int64) {
	keyboard := [][]Button{
		{{Text: "📊 Usage Statistics", CallbackData: "admin_stats"}},
		{{Text: "👥 User Management", CallbackData: "admin_users"}},
		{{Text: "🔎 Show Recent Users", CallbackData: "admin_show_users"}},
	}

	text := b.adminDashboardText(ctx)
	if messageID != 0 {
		b.edit(ctx, chatID, messageID, text, keyboard)
	} else {
		b.sendKB(ctx, chatID, text, keyboard)
	}
}

func (b *Bot) showUsageStatistics(ctx context.Context, chatID, messageID int64) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📅 Daily Usage (Last %d days):\n\n", config.DefaultActiveWindowDays))
	daily := b.ledger.DailyStats(ctx, config.DefaultActiveWindowDays)
	if len(daily) == 0 {
		sb.WriteString("No data available yet\n")
	}
	for _, day := range daily {
		sb.WriteString(fmt.Sprintf(
			"• %s: %d messages\n  Free: %d | Premium: %d | Admin: %d | Cost: $%.2f\n",
			day.Date, day.TotalMessages, day.FreeMessages, day.PremiumMessages,
			day.AdminMessages, day.TotalCost))
	}

	sb.WriteString("\n📱 Provider Usage:\n\n")
	for _, p := range b.ledger.ProviderStats(ctx) {
		avgCost := 0.0
		if p.TotalMessages > 0 {
			avgCost = p.TotalCost / float64(p.TotalMessages)
		}
		sb.WriteString(fmt.Sprintf(
			"• %s: %d messages\n  Tokens: %d | Cost: $%.2f | Avg: $%.4f/msg\n",
			capitalize(p.Provider), p.TotalMessages, p.TotalTokens, p.TotalCost, avgCost))
	}

	keyboard := [][]Button{{{Text: "◀️ Back to Dashboard", CallbackData: "admin_dashboard"}}}
	b.edit(ctx, chatID, messageID, sb.String(), keyboard)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatUser(u ledger.Account) string {
	username := u.Username
	if username == "" {
		username = "No username"
	}
	return fmt.Sprintf(
		"ID: %d\nName: %s %s\n@%s\nAccess: %s\nFree queries: %d\nTotal queries: %d\nLast active: %s\n\n",
		u.UserID, u.FirstName, u.LastName, username, strings.ToUpper(string(u.Tier)),
		u.RemainingFreeQueries, u.TotalQueries, u.LastActiveAt.Format("2006-01-02"))
}

func (b *Bot) showRecentUsers(ctx context.Context, chatID, messageID int64, freeOnly bool) {
	var users []ledger.Account
	var title string
	keyboard := [][]Button{{{Text: "◀️ Back", CallbackData: "admin_dashboard"}}}
	if freeOnly {
		users = b.ledger.RecentFreeUsers(ctx, config.DefaultRecentUserLimit)
		title = "🆓 Recent Free Users:\n\n"
	} else {
		users = b.ledger.RecentUsers(ctx, config.DefaultRecentUserLimit)
		title = "👥 Recent Users:\n\n"
		keyboard = append([][]Button{{{Text: "🆓 Free Users Only", CallbackData: "admin_show_free_users"}}}, keyboard...)
	}

	if len(users) == 0 {
		b.edit(ctx, chatID, messageID, "No users found in the database.", keyboard)
		return
	}

	var sb strings.Builder
	sb.WriteString(title)
	for _, u := range users {
		sb.WriteString(formatUser(u))
	}
	b.edit(ctx, chatID, messageID, sb.String(), keyboard)
}

func (b *Bot) showUserManagement(ctx context.Context, chatID, messageID int64) {
	keyboard := [][]Button{
		{{Text: "➕ Change User Role", CallbackData: "admin_change_role"}},
		{{Text: "⏱️ Add Free Credits", CallbackData: "admin_add_credits"}},
		{{Text: "◀️ Back to Dashboard", CallbackData: "admin_dashboard"}},
	}
	b.edit(ctx, chatID, messageID, "👥 User Management\n\nSelect an action to manage users:", keyboard)
}

func (b *Bot) handleAdminCallback(ctx context.Context, chatID, messageID, userID int64, data string) {
	if !b.isAdmin(ctx, userID) {
		b.edit(ctx, chatID, messageID, "⛔ You don't have admin privileges to use this feature.", nil)
		return
	}

	switch data {
	case "admin_dashboard":
		b.adminConvs.clear(userID)
		b.showAdminDashboard(ctx, chatID, messageID)
	case "admin_stats":
		b.showUsageStatistics(ctx, chatID, messageID)
	case "admin_users":
		b.showUserManagement(ctx, chatID, messageID)
	case "admin_show_users":
		b.showRecentUsers(ctx, chatID, messageID, false)
	case "admin_show_free_users":
		b.showRecentUsers(ctx, chatID, messageID, true)
	case "admin_change_role":
		b.adminConvs.set(userID, adminConversation{stage: stageAwaitRoleUserID})
		b.edit(ctx, chatID, messageID,
			"➕ Change User Roles\n\n"+
				"Please enter the Telegram user ID of the user whose role you want to change.\n\n"+
				"You can use /cancel to cancel this operation.", nil)
	case "admin_add_credits":
		b.adminConvs.set(userID, adminConversation{stage: stageAwaitCreditsUserID})
		b.edit(ctx, chatID, messageID,
			"⏱️ Add Free Credits\n\n"+
				"Please enter the Telegram user ID of the user you want to give additional free credits to.\n\n"+
				"You can use /cancel to cancel this operation.", nil)
	default:
		if strings.HasPrefix(data, "access_") {
			b.handleAccessLevelChoice(ctx, chatID, messageID, userID, strings.TrimPrefix(data, "access_"))
		}
	}
}

// handleAdminInput consumes plain text while an admin conversation is
// pending.
func (b *Bot) handleAdminInput(ctx context.Context, chatID, adminID int64, text string, conv adminConversation) {
	switch conv.stage {
	case stageAwaitRoleUserID, stageAwaitCreditsUserID:
		targetID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			b.send(ctx, chatID, "⚠️ Please enter a valid numeric user ID.\nTry again or use /cancel to abort:")
			return
		}

		target, ok := b.ledger.GetUser(ctx, targetID)
		if !ok {
			b.send(ctx, chatID, fmt.Sprintf(
				"⚠️ User with ID %d not found in the database. "+
					"The user needs to start the bot at least once first.\n\n"+
					"Please enter another user ID or use /cancel to abort:", targetID))
			return
		}

		if conv.stage == stageAwaitRoleUserID {
			b.adminConvs.set(adminID, adminConversation{stage: stageAwaitAccessLevel, targetUserID: targetID})
			b.sendKB(ctx, chatID, fmt.Sprintf(
				"%sSelect the new access level:", formatUser(target)),
				[][]Button{
					{{Text: "Free", CallbackData: "access_free"}},
					{{Text: "Premium", CallbackData: "access_premium"}},
					{{Text: "Admin", CallbackData: "access_admin"}},
					{{Text: "Cancel", CallbackData: "access_cancel"}},
				})
		} else {
			b.adminConvs.set(adminID, adminConversation{stage: stageAwaitCreditsAmount, targetUserID: targetID})
			b.send(ctx, chatID, fmt.Sprintf(
				"%sHow many free credits do you want to add? (Enter a number)\n"+
					"This will be added to their current free credits.", formatUser(target)))
		}

	case stageAwaitCreditsAmount:
		credits, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || credits <= 0 {
			b.send(ctx, chatID, "⚠️ Please enter a positive number of credits.\nTry again or use /cancel to abort:")
			return
		}

		newTotal, ok := b.ledger.IncrementQuota(ctx, conv.targetUserID, credits)
		b.adminConvs.clear(adminID)
		if ok {
			b.send(ctx, chatID, fmt.Sprintf(
				"✅ Added %d free credits to user %d.\nTheir new total is %d credits.",
				credits, conv.targetUserID, newTotal))
		} else {
			b.send(ctx, chatID, fmt.Sprintf(
				"❌ Failed to add credits to user %d. Please try again later.", conv.targetUserID))
		}
	}
}

func (b *Bot) handleAccessLevelChoice(ctx context.Context, chatID, messageID, adminID int64, level string) {
	conv, ok := b.adminConvs.get(adminID)
	if !ok || conv.stage != stageAwaitAccessLevel {
		return
	}
	b.adminConvs.clear(adminID)

	if level == "cancel" {
		b.edit(ctx, chatID, messageID, "Operation canceled.", nil)
		return
	}

	if b.ledger.SetTier(ctx, conv.targetUserID, ledger.Tier(level)) {
		b.edit(ctx, chatID, messageID, fmt.Sprintf(
			"✅ User %d access level updated to %s.", conv.targetUserID, strings.ToUpper(level)), nil)
	} else {
		b.edit(ctx, chatID, messageID, fmt.Sprintf(
			"❌ Failed to update user %d access level. Please try again later.", conv.targetUserID), nil)
	}
}
