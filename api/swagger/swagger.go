package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CIP API",
        "description": "Course industry partnership backend",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Partnerships", "description": "Partnership lifecycle management"},
        {"name": "Analytics", "description": "Partnership analytics and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/partnerships": {
            "get": {
                "tags": ["Partnerships"],
                "summary": "List partnerships",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "projectId", "in": "query", "type": "string"},
                    {"name": "userId", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "quarter", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Partnership collection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Partnerships"],
                "summary": "Create a partnership request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePartnershipRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}": {
            "get": {
                "tags": ["Partnerships"],
                "summary": "Get partnership detail with message history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Partnership detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/approve": {
            "put": {
                "tags": ["Partnerships"],
                "summary": "Approve a pending partnership",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RespondRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state or exclusivity conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/reject": {
            "put": {
                "tags": ["Partnerships"],
                "summary": "Reject a pending partnership",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RespondRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/cancel": {
            "put": {
                "tags": ["Partnerships"],
                "summary": "Cancel a pending partnership",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Canceled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/complete": {
            "put": {
                "tags": ["Partnerships"],
                "summary": "Complete an active partnership with success metrics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompletePartnershipRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/dates": {
            "put": {
                "tags": ["Partnerships"],
                "summary": "Set or adjust partnership dates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetDatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Dates updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/refresh": {
            "put": {
                "tags": ["Partnerships"],
                "summary": "Recompute lifecycle status from dates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/partnerships/{id}/messages": {
            "post": {
                "tags": ["Partnerships"],
                "summary": "Append a message to the partnership conversation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AppendMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Message appended", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/partnerships": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Aggregated partnership analytics",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "quarter", "in": "query", "type": "integer"},
                    {"name": "courseId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/partnerships/export": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Export partnership analytics as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "quarter", "in": "query", "type": "integer"},
                    {"name": "courseId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/system": {
            "get": {
                "tags": ["Analytics"],
                "summary": "System level metrics",
                "responses": {
                    "200": {"description": "System metrics", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreatePartnershipRequest": {
            "type": "object",
            "required": ["course_id", "project_id", "requested_by_user_id", "requested_to_user_id"],
            "properties": {
                "course_id": {"type": "string"},
                "project_id": {"type": "string"},
                "requested_by_user_id": {"type": "string"},
                "requested_to_user_id": {"type": "string"},
                "request_message": {"type": "string"}
            }
        },
        "RespondRequest": {
            "type": "object",
            "properties": {
                "response_message": {"type": "string"}
            }
        },
        "CompletePartnershipRequest": {
            "type": "object",
            "required": ["satisfaction", "completion_rate", "goal_achievement"],
            "properties": {
                "satisfaction": {"type": "number"},
                "completion_rate": {"type": "number"},
                "goal_achievement": {"type": "number"}
            }
        },
        "SetDatesRequest": {
            "type": "object",
            "required": ["start_date", "end_date"],
            "properties": {
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"}
            }
        },
        "AppendMessageRequest": {
            "type": "object",
            "required": ["user_id", "body"],
            "properties": {
                "user_id": {"type": "string"},
                "body": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
