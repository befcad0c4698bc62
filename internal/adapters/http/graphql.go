package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to the session store and
// navigation services. It is a read-only surface; mutations go through REST.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"label":    &graphql.Field{Type: graphql.String},
			"address":  &graphql.Field{Type: graphql.String},
			"place_id": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	legType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Leg",
		Fields: graphql.Fields{
			"origin":               &graphql.Field{Type: graphql.String},
			"destination":          &graphql.Field{Type: graphql.String},
			"origin_location":      &graphql.Field{Type: geoPointType},
			"destination_location": &graphql.Field{Type: geoPointType},
			"duration_text":        &graphql.Field{Type: graphql.String},
			"duration_seconds":     &graphql.Field{Type: graphql.Int},
			"distance_text":        &graphql.Field{Type: graphql.String},
			"distance_meters":      &graphql.Field{Type: graphql.Int},
			"mode_label":           &graphql.Field{Type: graphql.String},
			"details":              &graphql.Field{Type: graphql.String},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Segment",
		Fields: graphql.Fields{
			"color":            &graphql.Field{Type: graphql.String},
			"from_label":       &graphql.Field{Type: graphql.String},
			"to_label":         &graphql.Field{Type: graphql.String},
			"duration_text":    &graphql.Field{Type: graphql.String},
			"distance_text":    &graphql.Field{Type: graphql.String},
			"distance_meters":  &graphql.Field{Type: graphql.Int},
			"duration_seconds": &graphql.Field{Type: graphql.Int},
			"legs":             &graphql.Field{Type: graphql.NewList(legType)},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoutePlan",
		Fields: graphql.Fields{
			"total_distance_meters":  &graphql.Field{Type: graphql.Int},
			"total_duration_seconds": &graphql.Field{Type: graphql.Int},
			"arrival_time_text":      &graphql.Field{Type: graphql.String},
			"segments":               &graphql.Field{Type: graphql.NewList(segmentType)},
			"legs":                   &graphql.Field{Type: graphql.NewList(legType)},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Position",
		Fields: graphql.Fields{
			"lat":      &graphql.Field{Type: graphql.Float},
			"lng":      &graphql.Field{Type: graphql.Float},
			"accuracy": &graphql.Field{Type: graphql.Float},
			"heading":  &graphql.Field{Type: graphql.Float},
			"speed":    &graphql.Field{Type: graphql.Float},
		},
	})

	navigationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NavigationState",
		Fields: graphql.Fields{
			"phase":            &graphql.Field{Type: graphql.String},
			"current_position": &graphql.Field{Type: positionType},
			"error":            &graphql.Field{Type: graphql.String},
		},
	})

	progressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProgressSnapshot",
		Fields: graphql.Fields{
			"closest_segment_index":  &graphql.Field{Type: graphql.Int},
			"closest_leg_index":      &graphql.Field{Type: graphql.Int},
			"distance_to_leg_meters": &graphql.Field{Type: graphql.Float},
			"travelled_meters":       &graphql.Field{Type: graphql.Float},
			"remaining_meters":       &graphql.Field{Type: graphql.Float},
			"progress_ratio":         &graphql.Field{Type: graphql.Float},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"session_id":  &graphql.Field{Type: graphql.String},
			"origin":      &graphql.Field{Type: stopType},
			"destination": &graphql.Field{Type: stopType},
			"waypoints":   &graphql.Field{Type: graphql.NewList(stopType)},
			"plan":        &graphql.Field{Type: planType},
			"navigation":  &graphql.Field{Type: navigationType},
		},
	})

	tripRecordType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TripRecord",
		Fields: graphql.Fields{
			"SessionID":       &graphql.Field{Type: graphql.String},
			"OriginLabel":     &graphql.Field{Type: graphql.String},
			"DestLabel":       &graphql.Field{Type: graphql.String},
			"Waypoints":       &graphql.Field{Type: graphql.Int},
			"DistanceMeters":  &graphql.Field{Type: graphql.Int},
			"DurationSeconds": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a planning session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Get(p.Args["id"].(string))
				},
			},
			"sessions": &graphql.Field{
				Type:        graphql.NewList(sessionType),
				Description: "List live sessions, newest first",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.List(), nil
				},
			},
			"progress": &graphql.Field{
				Type:        progressType,
				Description: "Current navigation progress for a session",
				Args: graphql.FieldConfigArgument{
					"session_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Navigation.Progress(p.Context, p.Args["session_id"].(string))
				},
			},
			"recentTrips": &graphql.Field{
				Type:        graphql.NewList(tripRecordType),
				Description: "Recently archived navigation runs",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Archive == nil {
						return nil, nil
					}
					return deps.Archive.Recent(p.Context, p.Args["limit"].(int))
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
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
