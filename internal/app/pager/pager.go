package pager

import (
	"fmt"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

const DefaultPageSize = 5

type Action string

const (
	First Action = "first"
	Prev  Action = "prev"
	Next  Action = "next"
	Last  Action = "last"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case First, Prev, Next, Last:
		return a, nil
	}
	return "", fmt.Errorf("pager: unknown action %q", s)
}

// Buttons: true = deshabilitado.
type Buttons struct {
	First bool
	Prev  bool
	Next  bool
	Last  bool
}

func (b Buttons) Disabled(a Action) bool {
	switch a {
	case First:
		return b.First
	case Prev:
		return b.Prev
	case Next:
		return b.Next
	case Last:
		return b.Last
	}
	return true
}

// Page es una vista inmutable de una página ya calculada.
type Page struct {
	Items   []domain.ResultItem
	Number  int // 1-indexed
	Count   int
	Total   int
	Offset  int // índice global del primer item
	Buttons Buttons
}

func (p Page) Empty() bool { return len(p.Items) == 0 }

// Paginator no es thread-safe: el dueño (la sesión interactiva) serializa el acceso.
type Paginator struct {
	items []domain.ResultItem
	size  int
	page  int
}

func New(items []domain.ResultItem, size int) *Paginator {
	if size <= 0 {
		size = DefaultPageSize
	}
	cp := make([]domain.ResultItem, len(items))
	copy(cp, items)
	return &Paginator{items: cp, size: size, page: 1}
}

func (p *Paginator) Len() int      { return len(p.items) }
func (p *Paginator) PageSize() int { return p.size }
func (p *Paginator) Current() int  { return p.page }

// PageCount = max(1, ceil(n/P)).
func (p *Paginator) PageCount() int {
	n := (len(p.items) + p.size - 1) / p.size
	if n < 1 {
		return 1
	}
	return n
}

func (p *Paginator) First() { p.page = 1 }
func (p *Paginator) Last()  { p.page = p.PageCount() }

func (p *Paginator) Prev() {
	if p.page > 1 {
		p.page--
	}
}

func (p *Paginator) Next() {
	if p.page < p.PageCount() {
		p.page++
	}
}

// Go aplica la acción y devuelve la página resultante.
func (p *Paginator) Go(a Action) Page {
	switch a {
	case First:
		p.First()
	case Prev:
		p.Prev()
	case Next:
		p.Next()
	case Last:
		p.Last()
	}
	return p.Render()
}

// Item busca por id dentro del set completo, no sólo en la página visible.
func (p *Paginator) Item(id string) (domain.ResultItem, bool) {
	for _, it := range p.items {
		if it.ItemID() == id {
			return it, true
		}
	}
	return nil, false
}

func (p *Paginator) Render() Page {
	count := p.PageCount()
	if p.page > count {
		p.page = count
	}
	lo := (p.page - 1) * p.size
	hi := lo + p.size
	if hi > len(p.items) {
		hi = len(p.items)
	}
	if lo > hi {
		lo = hi
	}
	single := len(p.items) <= p.size
	return Page{
		Items:  p.items[lo:hi:hi],
		Number: p.page,
		Count:  count,
		Total:  len(p.items),
		Offset: lo,
		Buttons: Buttons{
			First: p.page == 1,
			Prev:  p.page == 1,
			Next:  p.page == count || single,
			Last:  p.page == count || single,
		},
	}
}
