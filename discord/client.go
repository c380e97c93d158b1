// Package discord adapts a discordgo session to the narrow surface the
// updater drives: guild listing, own-member permission lookup, nickname
// edits and presence updates.
package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Guild identifies one community the bot has joined
type Guild struct {
	ID   string
	Name string
}

// Client wraps an open discordgo session
type Client struct {
	session *discordgo.Session
}

// NewClient creates a new Client around the given session
func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

// Guilds returns the guilds the bot currently belongs to
func (c *Client) Guilds() []Guild {
	state := c.session.State
	state.RLock()
	defer state.RUnlock()

	guilds := make([]Guild, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		guilds = append(guilds, Guild{ID: g.ID, Name: g.Name})
	}

	return guilds
}

// BotPermissions resolves the bot's own member in the guild (state cache
// first, REST on a miss) and computes its effective guild-level permissions.
func (c *Client) BotPermissions(guildID string) (int64, error) {
	self := c.session.State.User
	if self == nil {
		return 0, errors.New("session user not populated yet")
	}

	member, err := c.session.State.Member(guildID, self.ID)
	if err != nil {
		member, err = c.session.GuildMember(guildID, self.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch bot member: %w", err)
		}
	}

	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return 0, fmt.Errorf("guild not in state: %w", err)
	}

	return guildPermissions(guild, member, self.ID), nil
}

// guildPermissions ORs the permissions of every role the member carries,
// starting from @everyone. The guild owner and Administrator hold every
// permission; members carry no guild-level permissions in gateway payloads,
// so the role walk is required.
func guildPermissions(guild *discordgo.Guild, member *discordgo.Member, userID string) int64 {
	if guild.OwnerID == userID {
		return discordgo.PermissionAll
	}

	var perms int64

	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			// @everyone applies to every member
			perms |= role.Permissions
			continue
		}

		for _, id := range member.Roles {
			if id == role.ID {
				perms |= role.Permissions
				break
			}
		}
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}

	return perms
}

// EditNickname sets the bot's own nickname in the guild, annotated with an
// audit log reason
func (c *Client) EditNickname(guildID, nick, reason string) error {
	return c.session.GuildMemberNickname(guildID, "@me", nick, discordgo.WithAuditLogReason(reason))
}

// SetStatus updates the bot's presence line
func (c *Client) SetStatus(text string) error {
	return c.session.UpdateGameStatus(0, text)
}

// IsForbidden reports whether err is a Discord permission rejection: either
// an HTTP 403 (role hierarchy) or error code 50013 (missing permissions).
func IsForbidden(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}

	if rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden {
		return true
	}

	return rest.Message != nil && rest.Message.Code == discordgo.ErrCodeMissingPermissions
}
