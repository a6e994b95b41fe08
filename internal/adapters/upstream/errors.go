package upstream

import (
	"fmt"

	"github.com/jose-valero/nexus7-bot/internal/domain"
)

// ErrNotFound es el mismo sentinel del dominio: un 404 del upstream es "no hay resultados".
var ErrNotFound = domain.ErrNotFound

type APIError struct {
	Source string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api status %d: %s", e.Source, e.Status, e.Body)
}
