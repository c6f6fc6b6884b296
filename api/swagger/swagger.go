package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Miqaat RMS API",
        "description": "Request and batch workflow for Miqaat operations",
        "version": "0.1.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Requests", "description": "Operator submitted requests"},
        {"name": "Batches", "description": "Grouping and resolving requests"},
        {"name": "Reference", "description": "Lookup lists for the request form"}
    ],
    "paths": {
        "/requests/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["todo", "is_batch", "completed", "duplicate", "discarded"]},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "created_by", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RequestList"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get a request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Request"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/filter-requests/": {
            "get": {
                "tags": ["Requests"],
                "summary": "List todo requests that can be batched",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RequestList"}}
                }
            }
        },
        "/requests/filters": {
            "get": {
                "tags": ["Requests"],
                "summary": "Filter options for the request list",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FilterOptions"}}
                }
            }
        },
        "/requests/create-request/": {
            "post": {
                "tags": ["Requests"],
                "summary": "Create a request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestForm"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Request"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/requests/{id}/edit/": {
            "patch": {
                "tags": ["Requests"],
                "summary": "Edit a todo request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestForm"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Request"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/requests/{id}/delete/": {
            "delete": {
                "tags": ["Requests"],
                "summary": "Delete a todo request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/batch/": {
            "get": {
                "tags": ["Batches"],
                "summary": "List batches with their requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchList"}}
                }
            },
            "post": {
                "tags": ["Batches"],
                "summary": "Create a batch from todo requests",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchForm"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Batch"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "Unknown request ids", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Requests not todo", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/batch/{id}": {
            "get": {
                "tags": ["Batches"],
                "summary": "Get a batch",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Batch"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/batch/{id}/edit/": {
            "patch": {
                "tags": ["Batches"],
                "summary": "Rename an open batch and replace its requests",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchForm"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Batch"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/requests/batches/{id}/delete/": {
            "delete": {
                "tags": ["Batches"],
                "summary": "Apply a terminal status to a batch",
                "description": "todo deletes the batch and resets its requests; completed and duplicate keep it.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "required": true, "type": "string", "enum": ["todo", "completed", "duplicate"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchResolution"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/users/permissions/": {
            "get": {
                "tags": ["Reference"],
                "summary": "List permission codes usable as request types",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Permission"}}}
                }
            }
        },
        "/requests/cities": {
            "get": {
                "tags": ["Reference"],
                "summary": "List cities",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/EntityList"}}}
            }
        },
        "/requests/zones": {
            "get": {
                "tags": ["Reference"],
                "summary": "List zones",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/EntityList"}}}
            }
        }
    },
    "definitions": {
        "Request": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "its": {"type": "string", "pattern": "^\\d{8}$"},
                "type": {"type": "string"},
                "status": {"type": "string"},
                "city": {"type": "integer", "x-nullable": true},
                "city_name": {"type": "string"},
                "zone": {"type": "integer", "x-nullable": true},
                "zone_name": {"type": "string"},
                "toggle": {"type": "string", "enum": ["waaz", "majlis", "bethak"], "x-nullable": true},
                "pass_date": {"type": "string", "format": "date", "x-nullable": true},
                "meta": {"type": "string"},
                "created_by_id": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "RequestForm": {
            "type": "object",
            "required": ["its", "type"],
            "properties": {
                "its": {"type": "string"},
                "type": {"type": "string"},
                "city": {"type": "integer", "x-nullable": true},
                "zone": {"type": "integer", "x-nullable": true},
                "toggle": {"type": "string", "x-nullable": true},
                "pass_date": {"type": "string", "x-nullable": true},
                "meta": {"type": "string"}
            }
        },
        "RequestList": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/Request"}},
                "count": {"type": "integer"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        },
        "FilterOptions": {
            "type": "object",
            "properties": {
                "statuses": {"type": "array", "items": {"type": "string"}},
                "types": {"type": "array", "items": {"type": "string"}},
                "creators": {"type": "array", "items": {"$ref": "#/definitions/Creator"}}
            }
        },
        "Creator": {
            "type": "object",
            "properties": {
                "created_by__id": {"type": "string"},
                "created_by__username": {"type": "string"}
            }
        },
        "Batch": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["open", "completed", "duplicate"]},
                "created_by": {"type": "string"},
                "request_ids": {"type": "array", "items": {"type": "integer"}},
                "requests": {"type": "array", "items": {"$ref": "#/definitions/Request"}}
            }
        },
        "BatchForm": {
            "type": "object",
            "required": ["name", "request_ids"],
            "properties": {
                "name": {"type": "string"},
                "request_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "BatchList": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/Batch"}},
                "count": {"type": "integer"}
            }
        },
        "BatchResolution": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "integer"},
                "status": {"type": "string"},
                "request_ids": {"type": "array", "items": {"type": "integer"}},
                "deleted": {"type": "boolean"},
                "changed": {"type": "boolean"}
            }
        },
        "Permission": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "EntityList": {
            "type": "object",
            "properties": {
                "results": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}
                    }
                },
                "count": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
