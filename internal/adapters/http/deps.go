package http

import (
	"log/slog"

	"github.com/nmacchitella/topoi/internal/adapters/valkey"
	"github.com/nmacchitella/topoi/internal/core/ports"
	"github.com/nmacchitella/topoi/internal/core/usecases"
)

// Dependencies holds everything the HTTP handlers and the WebSocket map
// sessions need. Layers are created per connection; the catalog and the hub
// are shared across the process.
type Dependencies struct {
	Catalog   *usecases.CatalogService
	Hub       *usecases.SessionHub
	Directory ports.PlaceDirectory
	SelfID    string
	Cache     *valkey.Cache
	Log       *slog.Logger
}
