// Package docs registers the OpenAPI document served under /docs.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a tenant",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dtos.DTOForUserCreate"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dtos.DTOForUserLogin"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/chats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "List chats, most recent first",
                "parameters": [{"type": "integer", "name": "page", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/chats/{id}/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "Message history",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "before", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chats"],
                "summary": "Reply in a chat",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dtos.SendTextDTO"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Credentials missing"}, "502": {"description": "Provider rejected"}}
            }
        },
        "/whatsapp/send-message": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["whatsapp"],
                "summary": "Send a text to a phone number",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dtos.SendToPhoneDTO"}}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Credentials missing"}, "502": {"description": "Provider rejected"}}
            }
        }
    },
    "definitions": {
        "dtos.DTOForUserCreate": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "phone": {"type": "string"},
                "surname": {"type": "string"}
            }
        },
        "dtos.DTOForUserLogin": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dtos.SendTextDTO": {
            "type": "object",
            "required": ["message"],
            "properties": {"message": {"type": "string"}}
        },
        "dtos.SendToPhoneDTO": {
            "type": "object",
            "required": ["message", "phone_number"],
            "properties": {
                "message": {"type": "string"},
                "name": {"type": "string"},
                "phone_number": {"type": "string"}
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
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Chatdesk API",
	Description:      "Multi-tenant WhatsApp Business inbox: webhook intake, chats, outbound messages and campaigns.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
