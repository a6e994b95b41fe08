package discord

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jose-valero/nexus7-bot/internal/app/pager"
)

// Prefijos de custom_id. Formato: <prefijo>:<campos separados por ':'>
const (
	cidPage   = "pg"  // pg:<sid>:<acción>:<página renderizada>
	cidSelect = "sel" // sel:<sid>
	cidSave   = "sv"  // sv:<sid>:<itemID>
	cidPanel  = "np"  // np:<acción>

	maxCustomID = 100
)

var errBadCustomID = errors.New("malformed custom id")

func pageID(sid string, a pager.Action, page int) string {
	return cidPage + ":" + sid + ":" + string(a) + ":" + strconv.Itoa(page)
}

func selectID(sid string) string { return cidSelect + ":" + sid }

// saveID devuelve "" si el id del item no entra en un custom_id.
func saveID(sid, itemID string) string {
	id := cidSave + ":" + sid + ":" + itemID
	if len(id) > maxCustomID {
		return ""
	}
	return id
}

func panelID(action string) string { return cidPanel + ":" + action }

type customID struct {
	Prefix string
	SID    string
	Action pager.Action
	Page   int
	ItemID string
	Panel  string
}

func parseCustomID(raw string) (customID, error) {
	prefix, rest, ok := strings.Cut(raw, ":")
	if !ok || rest == "" {
		return customID{}, errBadCustomID
	}
	c := customID{Prefix: prefix}
	switch prefix {
	case cidPage:
		parts := strings.Split(rest, ":")
		if len(parts) != 3 {
			return customID{}, errBadCustomID
		}
		a, err := pager.ParseAction(parts[1])
		if err != nil {
			return customID{}, errBadCustomID
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return customID{}, errBadCustomID
		}
		c.SID, c.Action, c.Page = parts[0], a, n
	case cidSelect:
		c.SID = rest
	case cidSave:
		// el item id puede traer ':'; sólo cortamos el primero
		sid, item, ok := strings.Cut(rest, ":")
		if !ok || sid == "" || item == "" {
			return customID{}, errBadCustomID
		}
		c.SID, c.ItemID = sid, item
	case cidPanel:
		c.Panel = rest
	default:
		return customID{}, errBadCustomID
	}
	return c, nil
}
