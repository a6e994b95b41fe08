package selection

import (
	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// Controller liga una lista de elección única a la selección del usuario.
// La lista nunca se modifica: elegir un item sólo cambia la vista de detalle.
// No es thread-safe; lo serializa la sesión interactiva dueña.
type Controller struct {
	items    []domain.ResultItem
	selected domain.ResultItem
	claimed  map[string]struct{}
}

func New(items []domain.ResultItem) *Controller {
	cp := make([]domain.ResultItem, len(items))
	copy(cp, items)
	return &Controller{items: cp, claimed: map[string]struct{}{}}
}

func (c *Controller) Items() []domain.ResultItem {
	out := make([]domain.ResultItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) Len() int { return len(c.items) }

func (c *Controller) lookup(id string) (domain.ResultItem, bool) {
	for _, it := range c.items {
		if it.ItemID() == id {
			return it, true
		}
	}
	return nil, false
}

// Select devuelve domain.ErrNotFound si el id no pertenece a esta lista (interacción vieja).
func (c *Controller) Select(id string) (domain.ResultItem, error) {
	it, ok := c.lookup(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.selected = it
	return it, nil
}

func (c *Controller) Selected() (domain.ResultItem, bool) {
	return c.selected, c.selected != nil
}

// Claim resuelve la acción secundaria (💾) del detalle renderizado con id.
// Va atada al payload que se mostró, no a la selección viva, y es one-shot.
func (c *Controller) Claim(id string) (domain.ResultItem, error) {
	it, ok := c.lookup(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, done := c.claimed[id]; done {
		return nil, domain.ErrAlreadySaved
	}
	c.claimed[id] = struct{}{}
	return it, nil
}

// Release deshace un Claim cuando la acción falló (p.ej. DMs cerrados) para permitir reintento.
func (c *Controller) Release(id string) { delete(c.claimed, id) }
