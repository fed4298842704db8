package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to the catalog service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	unifiedTagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UnifiedTag",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"icon":        &graphql.Field{Type: graphql.String},
			"usage_count": &graphql.Field{Type: graphql.Int},
		},
	})

	collectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Collection",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"owner_id":    &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"icon":        &graphql.Field{Type: graphql.String},
			"public":      &graphql.Field{Type: graphql.Boolean},
			"place_count": &graphql.Field{Type: graphql.Int},
		},
	})

	followedUserType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FollowedUser",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"username":     &graphql.Field{Type: graphql.String},
			"display_name": &graphql.Field{Type: graphql.String},
		},
	})

	sourceMetaType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SourceMeta",
		Fields: graphql.Fields{
			"source_id":    &graphql.Field{Type: graphql.String},
			"total_places": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"unifiedTags": &graphql.Field{
				Type:        graphql.NewList(unifiedTagType),
				Description: "Merge same-named tags across the given sources",
				Args: graphql.FieldConfigArgument{
					"sources": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var sources []string
					if raw, ok := p.Args["sources"].([]interface{}); ok {
						for _, v := range raw {
							if id, ok := v.(string); ok && id != "" {
								sources = append(sources, id)
							}
						}
					}
					return deps.Catalog.UnifiedTags(p.Context, sources)
				},
			},
			"collections": &graphql.Field{
				Type:        graphql.NewList(collectionType),
				Description: "The active user's collections",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Collections(p.Context)
				},
			},
			"following": &graphql.Field{
				Type:        graphql.NewList(followedUserType),
				Description: "Users available as map layers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Following(p.Context)
				},
			},
			"sourceMeta": &graphql.Field{
				Type:        sourceMetaType,
				Description: "Load-strategy metadata for one source",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Catalog.Meta(p.Context, id)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
