// Package docs holds the swagger document for the lending endpoints, maintained by hand
// alongside the handler annotations.
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
        "/statuses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "Status vocabulary",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/borrow-requests": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "List borrow requests (admin)",
                "parameters": [
                    {"type": "string", "description": "requester", "name": "requester_id", "in": "query"},
                    {"type": "integer", "description": "title", "name": "title_id", "in": "query"},
                    {"type": "string", "description": "status, overdue included", "name": "status", "in": "query"},
                    {"type": "string", "description": "title / author / requester", "name": "search", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/lending.ListRequestsResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "Submit a borrow request",
                "parameters": [
                    {"description": "title to borrow", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lending.SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/lending.RequestResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorDTO"}},
                    "409": {"description": "OUT_OF_STOCK / DUPLICATE_PENDING_REQUEST", "schema": {"$ref": "#/definitions/httpx.ErrorDTO"}}
                }
            }
        },
        "/borrow-requests/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "My borrow requests",
                "parameters": [
                    {"type": "string", "description": "pending|rejected|borrowed|returned|overdue", "name": "status", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"},
                    {"type": "string", "description": "asc|desc", "name": "order", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/lending.ListRequestsResponse"}}}
            }
        },
        "/borrow-requests/{key}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "Get a borrow request by id or ULID",
                "parameters": [{"type": "string", "description": "request id or ULID", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lending.RequestResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorDTO"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["lending"],
                "summary": "Remove a request that has no loan (admin)",
                "parameters": [{"type": "string", "description": "request id or ULID", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.ErrorDTO"}}
                }
            }
        },
        "/borrow-requests/{key}/decision": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "Approve or reject a pending request (admin)",
                "parameters": [
                    {"type": "string", "description": "request id or ULID", "name": "key", "in": "path", "required": true},
                    {"description": "decision", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/lending.DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lending.RequestResponse"}},
                    "409": {"description": "OUT_OF_STOCK / INVALID_STATE_TRANSITION", "schema": {"$ref": "#/definitions/httpx.ErrorDTO"}}
                }
            }
        },
        "/borrow-records": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "List borrow records (admin)",
                "parameters": [{"type": "string", "description": "borrowed|returned|overdue", "name": "status", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/lending.ListRecordsResponse"}}}
            }
        },
        "/borrow-records/{key}/return": {
            "put": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["lending"],
                "summary": "Mark a loan returned (admin)",
                "parameters": [{"type": "string", "description": "record id or ULID", "name": "key", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/lending.RecordResponse"}},
                    "409": {"description": "ALREADY_RETURNED", "schema": {"$ref": "#/definitions/httpx.ErrorDTO"}}
                }
            }
        }
    },
    "definitions": {
        "httpx.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "detail": {"type": "string"}
            }
        },
        "httpx.ErrorDTO": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/httpx.ErrorBody"}}
        },
        "lending.SubmitRequest": {
            "type": "object",
            "required": ["title_id"],
            "properties": {"title_id": {"type": "integer"}}
        },
        "lending.DecisionRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["approved", "rejected"]},
                "due_date": {"type": "string", "description": "RFC3339 or YYYY-MM-DD"}
            }
        },
        "lending.RecordResponse": {
            "type": "object",
            "properties": {
                "record_id": {"type": "integer"},
                "record_ulid": {"type": "string"},
                "request_id": {"type": "integer"},
                "requester_id": {"type": "string"},
                "requester_name": {"type": "string"},
                "title_id": {"type": "integer"},
                "title_name": {"type": "string"},
                "title_image": {"type": "string"},
                "author_name": {"type": "string"},
                "category_name": {"type": "string"},
                "borrow_date": {"type": "string"},
                "due_date": {"type": "string"},
                "return_date": {"type": "string"},
                "status": {"type": "string"},
                "status_label": {"type": "string"},
                "status_color": {"type": "string"}
            }
        },
        "lending.RequestResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "integer"},
                "request_ulid": {"type": "string"},
                "requester_id": {"type": "string"},
                "requester_name": {"type": "string"},
                "title_id": {"type": "integer"},
                "title_name": {"type": "string"},
                "title_image": {"type": "string"},
                "author_name": {"type": "string"},
                "category_name": {"type": "string"},
                "status": {"type": "string"},
                "status_label": {"type": "string"},
                "status_color": {"type": "string"},
                "created_at": {"type": "string"},
                "approver_id": {"type": "string"},
                "approver_name": {"type": "string"},
                "approved_at": {"type": "string"},
                "record": {"$ref": "#/definitions/lending.RecordResponse"}
            }
        },
        "lending.ListRequestsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/lending.RequestResponse"}},
                "total": {"type": "integer"},
                "next_offset": {"type": "integer"}
            }
        },
        "lending.ListRecordsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/lending.RecordResponse"}},
                "total": {"type": "integer"},
                "next_offset": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Use:  Bearer <JWT>",
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
	BasePath:         "/api/v1",
	Schemes:          []string{"https"},
	Title:            "LIBRA API",
	Description:      "Library borrow requests, loans and inventory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
