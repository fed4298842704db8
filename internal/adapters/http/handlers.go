package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nmacchitella/topoi/internal/adapters/directory"
)

// upstreamError maps a directory failure onto an HTTP response. 404s from
// the backend pass through; everything else is a bad gateway.
func upstreamError(c *fiber.Ctx, err error) error {
	var se *directory.StatusError
	if errors.As(err, &se) && se.Code == 404 {
		return errNotFound(c, "not found in directory")
	}
	return errBadGateway(c, err.Error())
}

// TagsHandler returns the active user's own tags.
func TagsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := deps.Catalog.Tags(c.Context(), "")
		if err != nil {
			return upstreamError(c, err)
		}
		return c.JSON(tags)
	}
}

// UnifiedTagsHandler merges same-named tags across the given sources. The
// sources query parameter is a comma-separated list of followed user IDs;
// empty means the active user's own tags unmodified.
func UnifiedTagsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sources []string
		if raw := c.Query("sources"); raw != "" {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					sources = append(sources, id)
				}
			}
		}
		if len(sources) > 50 {
			return errBadRequest(c, "too many sources (max 50)")
		}

		tags, err := deps.Catalog.UnifiedTags(c.Context(), sources)
		if err != nil {
			return upstreamError(c, err)
		}
		return c.JSON(tags)
	}
}

// CollectionsHandler returns the active user's collections.
func CollectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cols, err := deps.Catalog.Collections(c.Context())
		if err != nil {
			return upstreamError(c, err)
		}
		return c.JSON(cols)
	}
}

// FollowingHandler returns the users available as map layers, paginated.
func FollowingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := deps.Catalog.Following(c.Context())
		if err != nil {
			return upstreamError(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(users)
		if offset >= total {
			users = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			users = users[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: users, Pagination: pg})
	}
}

// SourceMetaHandler returns the load-strategy metadata for one source.
func SourceMetaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "source id is required")
		}
		meta, err := deps.Catalog.Meta(c.Context(), id)
		if err != nil {
			return upstreamError(c, err)
		}
		return c.JSON(meta)
	}
}
