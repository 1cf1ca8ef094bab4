package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	recordType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Record",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"user_id":     &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"distance":    &graphql.Field{Type: graphql.Float},
		},
	})

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Station",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"station_id": &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"operator":   &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"distance":   &graphql.Field{Type: graphql.Float},
		},
	})

	matchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeMatch",
		Fields: graphql.Fields{
			"location":     &graphql.Field{Type: geoPointType},
			"display_name": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"record": &graphql.Field{
				Type:        recordType,
				Description: "Get a record by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Records.GetByID(p.Context, id)
				},
			},
			"records": &graphql.Field{
				Type:        graphql.NewList(recordType),
				Description: "List records, newest first",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category := p.Args["category"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Records.List(p.Context, category, limit, offset)
				},
			},
			"recordsNearby": &graphql.Field{
				Type:        graphql.NewList(recordType),
				Description: "Find records near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 2000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Records.FindNearby(p.Context, lat, lng, radius, limit)
				},
			},
			"station": &graphql.Field{
				Type:        stationType,
				Description: "Get a station by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Stations.GetByID(p.Context, id)
				},
			},
			"stationsNearby": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Find stations near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 2000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Stations.FindNearby(p.Context, lat, lng, radius, limit)
				},
			},
			"geocode": &graphql.Field{
				Type:        matchType,
				Description: "Resolve a place query to its best match",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					return deps.Geocoder.Geocode(p.Context, q)
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
