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
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create an API operator",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a bearer token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/settings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Update settings",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.SettingsPatch"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/settings/polling": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["settings"],
                "summary": "Enable or disable polling",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ToggleRequest"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/settings/spoofing": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["settings"],
                "summary": "Enable or disable location spoofing",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ToggleRequest"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["engine"],
                "summary": "Engine status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/location": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["engine"],
                "summary": "Currently reported location",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/entity/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["engine"],
                "summary": "Fetch the entity once",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List poll events",
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"enum": ["START", "STOP", "FETCH_OK", "FETCH_ERROR", "INJECT_ERROR", "SPOOF_DISABLED"], "type": "string", "name": "type", "in": "query"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}}
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "handlers.ToggleRequest": {
            "type": "object",
            "required": ["enabled"],
            "properties": {"enabled": {"type": "boolean", "example": true}}
        },
        "handlers.SettingsResponse": {
            "type": "object",
            "properties": {
                "base_url": {"type": "string"},
                "entity_id": {"type": "string"},
                "poll_interval_seconds": {"type": "integer"},
                "polling_enabled": {"type": "boolean"},
                "spoofing_enabled": {"type": "boolean"},
                "has_token": {"type": "boolean"}
            }
        },
        "models.SettingsPatch": {
            "type": "object",
            "properties": {
                "base_url": {"type": "string"},
                "token": {"type": "string"},
                "entity_id": {"type": "string"},
                "poll_interval_seconds": {"type": "integer"},
                "polling_enabled": {"type": "boolean"},
                "spoofing_enabled": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "HA Location Proxy API",
	Description:      "Control API for the Home Assistant location polling daemon.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
