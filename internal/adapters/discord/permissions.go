package discord

import "github.com/bwmarrin/discordgo"

// requireAdminOrRoles: dueño del guild, bit de Administrator o alguno de ADMIN_ROLE_IDS.
// Si no, responde efímero y devuelve false.
func (r *Router) requireAdminOrRoles(ic *discordgo.InteractionCreate, ephemeral bool) bool {
	if ic.Member == nil || ic.Member.User == nil {
		r.reply(ic, ephemeral, "🔒 This command only works inside a server.")
		return false
	}

	// Owner
	if g, _ := r.s.State.Guild(ic.GuildID); g != nil && ic.Member.User.ID == g.OwnerID {
		return true
	}

	// Administrator bit: la interacción ya trae los permisos calculados; si no, sumamos los roles.
	perms := ic.Member.Permissions
	if perms&discordgo.PermissionAdministrator == 0 {
		if roles, err := r.s.GuildRoles(ic.GuildID); err == nil {
			perms |= rolePermissions(roles, ic.Member.Roles)
		}
	}
	if isAdmin(perms, ic.Member.Roles, r.opts.AdminRoleIDs) {
		return true
	}

	r.reply(ic, ephemeral, "🔒 You don't have permission for this.")
	return false
}

func rolePermissions(roles []*discordgo.Role, memberRoles []string) int64 {
	var perms int64
	for _, rid := range memberRoles {
		for _, ro := range roles {
			if ro.ID == rid {
				perms |= ro.Permissions
			}
		}
	}
	return perms
}

func isAdmin(perms int64, memberRoles, adminRoleIDs []string) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if len(adminRoleIDs) == 0 {
		return false
	}
	has := make(map[string]struct{}, len(memberRoles))
	for _, rid := range memberRoles {
		has[rid] = struct{}{}
	}
	for _, want := range adminRoleIDs {
		if _, ok := has[want]; ok {
			return true
		}
	}
	return false
}

// requireSpotifyOwner: los comandos de Spotify usan la cuenta del dueño del token.
func (r *Router) requireSpotifyOwner(ic *discordgo.InteractionCreate, ephemeral bool) bool {
	if r.opts.SpotifyOwnerID == "" || userID(ic) == r.opts.SpotifyOwnerID {
		return true
	}
	r.reply(ic, ephemeral, "🔒 Only the owner of the linked Spotify account can use these commands.")
	return false
}
