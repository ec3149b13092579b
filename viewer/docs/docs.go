// Package docs registers the OpenAPI description of the viewer API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List active and saved sessions",
                "parameters": [
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Page offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Create a chart session",
                "parameters": [
                    {"description": "Session options", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/session.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/session.SessionResponse"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get session metadata",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.SessionResponse"}},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Delete a session from memory, cache and database",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sessions/{id}/files": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Upload CSV or XLSX files",
                "description": "Each file is parsed on its own; failed files are listed and leave the chart unchanged.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "file", "description": "CSV, TSV or XLSX file (repeatable)", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/chart.LoadReport"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/sessions/{id}/paths": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Load server-local files",
                "description": "Paths are resolved under DATA_DIR; a path outside it rejects the request.",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Paths", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/session.LoadPathsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/chart.LoadReport"}},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Loading server-local files is disabled"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/sessions/{id}/clear": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Remove every series",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sessions/{id}/save": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Persist the session with its series",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Notes", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/session.SaveSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.SessionResponse"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/sessions/{id}/series": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chart"],
                "summary": "List loaded series",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "description": "Include points", "name": "points", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sessions/{id}/scene": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chart"],
                "summary": "Render the chart scene",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "number", "description": "Plot width in pixels", "name": "w", "in": "query"},
                    {"type": "number", "description": "Plot height in pixels", "name": "h", "in": "query"},
                    {"type": "integer", "description": "Maximum tick count", "name": "ticks", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sessions/{id}/hover": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chart"],
                "summary": "Hover readout and snap-to-peak",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "number", "description": "Pointer x in pixels", "name": "x", "in": "query", "required": true},
                    {"type": "number", "description": "Pointer y in pixels", "name": "y", "in": "query", "required": true},
                    {"type": "number", "description": "Plot width in pixels", "name": "w", "in": "query"},
                    {"type": "number", "description": "Plot height in pixels", "name": "h", "in": "query"},
                    {"type": "number", "description": "Snap radius in pixels", "name": "radius", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sessions/{id}/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chart"],
                "summary": "Area under |Y| per series",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/aggregate.Slice"}}},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "aggregate.Slice": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "number"}
            }
        },
        "chart.LoadReport": {
            "type": "object",
            "properties": {
                "series_added": {"type": "integer"},
                "failures": {"type": "array", "items": {"$ref": "#/definitions/csvload.IngestError"}}
            }
        },
        "csvload.IngestError": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "session.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "locale": {"type": "string", "example": "de-DE"},
                "notes": {"type": "string"},
                "created_from": {"type": "string", "example": "web"}
            }
        },
        "session.LoadPathsRequest": {
            "type": "object",
            "properties": {
                "paths": {"type": "array", "items": {"type": "string"}}
            }
        },
        "session.SaveSessionRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"}
            }
        },
        "session.Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["ACTIVE", "SAVED"]},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "saved_at": {"type": "string"},
                "series_count": {"type": "integer"},
                "x_title": {"type": "string"},
                "y_title": {"type": "string"}
            }
        },
        "session.SessionResponse": {
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/session.Session"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Radar Scope Viewer API",
	Description:      "Loads radar CSV/XLSX recordings into chart sessions and serves scenes, hover readouts and area summaries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
