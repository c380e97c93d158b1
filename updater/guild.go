package updater

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/complete-domination/xrp-price-bot/discord"
	"github.com/complete-domination/xrp-price-bot/pricefeed"
)

const (
	auditReason    = "Auto price update"
	degradedStatus = "API error"
)

// updateGuild applies one price update to a single guild. Every failure path
// is terminal here: it is logged and never propagates to the loop. Each call
// performs at most one nickname write and one presence write.
func (u *Updater) updateGuild(g discord.Guild, quote pricefeed.Quote, fetchErr error) {
	perms, err := u.presence.BotPermissions(g.ID)
	if err != nil {
		log.Printf("⚠️ [%s] Could not resolve bot member: %v", g.Name, err)
		return
	}

	if perms&discordgo.PermissionChangeNickname == 0 && perms&discordgo.PermissionManageNicknames == 0 {
		log.Printf("📋 [%s] Missing permission: Change Nickname (or Manage Nicknames)", g.Name)
		return
	}

	if fetchErr != nil {
		log.Printf("⚠️ [%s] Price fetch failed: %v", g.Name, fetchErr)

		if err := u.presence.SetStatus(degradedStatus); err != nil {
			log.Printf("🔍 [%s] Could not set degraded status: %v", g.Name, err)
		}

		return
	}

	nick := Nickname(quote)

	switch err := u.presence.EditNickname(g.ID, nick, auditReason); {
	case err == nil:
	case discord.IsForbidden(err):
		log.Printf("📋 [%s] Forbidden: role hierarchy/permissions block nickname change", g.Name)
	default:
		log.Printf("⚠️ [%s] Failed to update nickname: %v", g.Name, err)
	}

	// Presence is best effort and independent of the nickname outcome
	if err := u.presence.SetStatus(StatusText(quote)); err != nil {
		log.Printf("🔍 [%s] Could not set presence: %v", g.Name, err)
	}

	log.Printf("✅ [%s] Nick → %s | 24h → %+.2f%%", g.Name, nick, quote.Change24h)
}
