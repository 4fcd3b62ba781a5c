// Package docs is generated by swaggo/swag from the annotations in
// internal/http. Regenerate with: swag init -g cmd/server/main.go
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
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register user",
                "parameters": [
                    {"description": "register", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.registerReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.tokenResp"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "login", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.loginReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.tokenResp"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/{collection}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List or fetch records of a collection",
                "description": "?id= returns one record; town, category, status and search filter the list.",
                "parameters": [
                    {"type": "string", "description": "record id", "name": "id", "in": "query"},
                    {"type": "string", "description": "town", "name": "town", "in": "query"},
                    {"type": "string", "description": "category", "name": "category", "in": "query"},
                    {"type": "string", "description": "status", "name": "status", "in": "query"},
                    {"type": "string", "description": "free text, matched locally", "name": "search", "in": "query"},
                    {"type": "integer", "description": "limit", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/view.View"}}
                }
            }
        },
        "/api/{collection}/{id}/{action}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actions"],
                "summary": "Perform an action on a record",
                "description": "upvote, like, join, leave, vote (?option=), accept, decline",
                "parameters": [
                    {"type": "string", "description": "record id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "action", "name": "action", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.actionResp"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.actionResp"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.actionResp"}}
                }
            }
        },
        "/api/chat": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Read a chat; messages shown to the caller start expiring",
                "parameters": [
                    {"type": "string", "description": "other participant of a direct chat", "name": "with", "in": "query"},
                    {"type": "string", "description": "club chat", "name": "clubId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ChatMessage"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Send a direct or club chat message",
                "parameters": [
                    {"description": "to or clubId, text", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.sendReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.ChatMessage"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "http.registerReq": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "name": {"type": "string"},
                "hometown": {"type": "string"},
                "ref": {"type": "string"}
            }
        },
        "http.loginReq": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "http.tokenResp": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "refresh": {"type": "string"}
            }
        },
        "http.actionResp": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string"},
                "error": {"type": "string"},
                "needsSignIn": {"type": "boolean"},
                "fields": {"type": "object", "additionalProperties": true}
            }
        },
        "http.sendReq": {
            "type": "object",
            "properties": {
                "to": {"type": "string"},
                "clubId": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "domain.ChatMessage": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "chatId": {"type": "string"},
                "clubId": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "text": {"type": "string"},
                "readBy": {"type": "array", "items": {"type": "string"}},
                "readAt": {"type": "string"},
                "expiresAt": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "view.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": true},
                "actions": {"type": "array", "items": {"type": "string"}},
                "active": {"type": "boolean"},
                "mine": {"type": "boolean"}
            }
        },
        "view.View": {
            "type": "object",
            "properties": {
                "target": {"type": "string"},
                "collection": {"type": "string"},
                "state": {"type": "string"},
                "error": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/view.Item"}},
                "groups": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "total": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Townboat API",
	Description:      "Local community boards with live lists, toggles and ephemeral chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
