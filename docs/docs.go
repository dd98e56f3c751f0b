// Package docs holds the OpenAPI document served under /swagger.
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
        "/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Operator login",
                "parameters": [
                    {"description": "Operator credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/content": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Get page content",
                "parameters": [
                    {"type": "string", "default": "index", "description": "Page key", "name": "page", "in": "query"},
                    {"type": "string", "default": "en", "description": "Language code", "name": "lang", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.contentResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Update page content",
                "parameters": [
                    {"description": "Sections to write", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.contentUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Member login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create a member account",
                "parameters": [
                    {"description": "Member credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/auth/verify-token": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Inspect the current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.verifyTokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.livenessResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registration"],
                "summary": "Submit a membership request",
                "parameters": [
                    {"description": "Membership request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registration"],
                "summary": "List membership requests",
                "parameters": [
                    {"type": "string", "default": "pending", "description": "all, pending, accepted or denied", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.usersResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/users/accept": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registration"],
                "summary": "Accept a membership request",
                "parameters": [
                    {"description": "Identifier and actor", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.acceptRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.acceptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/users/deny": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registration"],
                "summary": "Deny a membership request",
                "parameters": [
                    {"description": "Identifier, actor and reason", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.denyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/verify": {
            "get": {
                "tags": ["auth"],
                "summary": "Verify a member email address",
                "parameters": [
                    {"type": "string", "description": "Verification token", "name": "token", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Found"}
                }
            }
        }
    },
    "definitions": {
        "handler.acceptRequest": {
            "type": "object",
            "required": ["ign"],
            "properties": {
                "acceptedBy": {"type": "string", "maxLength": 254},
                "ign": {"type": "string", "maxLength": 140}
            }
        },
        "handler.acceptResponse": {
            "type": "object",
            "properties": {
                "commands": {"type": "array", "items": {"type": "string"}},
                "matched": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.contentResponse": {
            "type": "object",
            "properties": {
                "content": {"type": "object", "additionalProperties": {"type": "string"}},
                "success": {"type": "boolean"}
            }
        },
        "handler.contentUpdateRequest": {
            "type": "object",
            "required": ["content", "lang", "modifiedBy", "page"],
            "properties": {
                "content": {"type": "object", "additionalProperties": {"type": "string"}},
                "lang": {"type": "string", "maxLength": 10},
                "modifiedBy": {"type": "string", "maxLength": 254},
                "page": {"type": "string", "maxLength": 100}
            }
        },
        "handler.credentialsRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 254},
                "password": {"type": "string"}
            }
        },
        "handler.denyRequest": {
            "type": "object",
            "required": ["ign", "reason"],
            "properties": {
                "deniedBy": {"type": "string", "maxLength": 254},
                "ign": {"type": "string", "maxLength": 140},
                "reason": {"type": "string", "maxLength": 1000}
            }
        },
        "handler.livenessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "isAdmin": {"type": "boolean"},
                "success": {"type": "boolean"},
                "token": {"type": "string"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["discord", "email", "ign", "type"],
            "properties": {
                "discord": {"type": "string", "maxLength": 100},
                "email": {"type": "string", "maxLength": 254},
                "ign": {"type": "string", "maxLength": 140},
                "telegram": {"type": "string", "maxLength": 100},
                "type": {"type": "string", "maxLength": 50}
            }
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "accepted_by": {"type": "string"},
                "accepted_date": {"type": "string"},
                "created_at": {"type": "string"},
                "denied_by": {"type": "string"},
                "denied_date": {"type": "string"},
                "deny_reason": {"type": "string"},
                "discord": {"type": "string"},
                "email": {"type": "string"},
                "ign": {"type": "string"},
                "status": {"type": "string"},
                "telegram": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "handler.usersResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/handler.userResponse"}}
            }
        },
        "handler.verifyTokenResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "kind": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Webster API",
	Description:      "Membership registration, moderation and page content for the Webster community site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
