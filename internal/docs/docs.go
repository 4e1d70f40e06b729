// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"summary": "Service and dataset health", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/view": {
            "get": {"summary": "Current dashboard snapshot", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/state": {
            "get": {"summary": "Current dashboard state", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/events": {
            "post": {
                "summary": "Apply one event envelope {type, payload}",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "event", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown or malformed event"}}
            }
        },
        "/api/weights": {
            "put": {
                "summary": "Replace the impact, effort and preference weights",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "weights", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/filters": {
            "post": {
                "summary": "Include or exclude a person, macro area or feature",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "filter", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid filter"}}
            }
        },
        "/api/scaling/{metric}/toggle": {
            "post": {
                "summary": "Toggle min/max scaling of impact or effort",
                "parameters": [{"in": "path", "name": "metric", "required": true, "type": "string", "enum": ["impact", "effort"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown metric"}}
            }
        },
        "/api/view/{view}": {
            "post": {
                "summary": "Switch between matrix and table view",
                "parameters": [{"in": "path", "name": "view", "required": true, "type": "string", "enum": ["matrix", "table"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown view"}}
            }
        },
        "/api/sort": {
            "post": {
                "summary": "Set the table sort field and order",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "sort", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown field or order"}}
            }
        },
        "/api/quadrants/{quadrant}/toggle": {
            "post": {
                "summary": "Open or close the feature panel of a quadrant",
                "parameters": [{"in": "path", "name": "quadrant", "required": true, "type": "string",
                    "enum": ["quick-wins", "major-projects", "fill-ins", "thankless-tasks"]}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown quadrant"}}
            }
        },
        "/api/quadrants/selected": {
            "delete": {"summary": "Close the quadrant panel", "responses": {"200": {"description": "OK"}}}
        },
        "/api/features/{name}": {
            "get": {
                "summary": "Scored feature by name",
                "parameters": [{"in": "path", "name": "name", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/api/palette": {
            "get": {"summary": "Macro area colors", "responses": {"200": {"description": "OK"}}}
        },
        "/api/issues": {
            "get": {"summary": "Input records rejected during the last load", "responses": {"200": {"description": "OK"}}}
        },
        "/api/reload": {
            "post": {"summary": "Reload the dataset and reset the dashboard", "responses": {"200": {"description": "OK"}}}
        },
        "/metrics": {
            "get": {"summary": "Request, load and cache counters", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Impact/Effort Matrix API",
	Description:      "Prioritization dashboard over per-person feature evaluations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
