package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "Salesflow Workflow Engine API Documentation",
        "title": "Salesflow API",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http"],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "responses": {
                    "200": {
                        "description": "Server is healthy"
                    }
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List Tasks",
                "description": "List tasks visible to the caller. Salespeople see only tasks they own; managers see their team's tasks unless owner_id=none requests the unassigned pool.",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "description": "Repeatable sales status filter (HOT, NOT_HOT, DEAL, COLD)"},
                    {"in": "query", "name": "owner_id", "type": "string", "description": "Owner user id, or 'none' for unassigned tasks"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "A page of tasks"},
                    "401": {"description": "Missing or invalid token"}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create Task",
                "description": "Create a task inside a task list. Requires TEAM_LEADER role or above. An account may hold only one open GENERAL task.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Task created"},
                    "400": {"description": "Validation failed"},
                    "403": {"description": "Insufficient role"},
                    "409": {"description": "Account already has an open GENERAL task; the response names the existing task id"}
                }
            }
        },
        "/tasks/{id}/activities": {
            "post": {
                "tags": ["Activities"],
                "summary": "Log Activity",
                "description": "Append an activity log entry. TEKLIF_VERILDI and KARSITEKLIF require ad_fee, commission and joker and create a PENDING offer; TEKLIF_KABUL and TEKLIF_RED bulk-update every offer on the task; TEKRAR_ARANACAK requires follow_up_date.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true, "description": "Task id"}
                ],
                "responses": {
                    "201": {"description": "Activity logged"},
                    "400": {"description": "Validation failed, missing fields are named"},
                    "403": {"description": "Salespeople may only act on their own tasks"}
                }
            }
        },
        "/notifications/stream": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Notification Stream",
                "description": "Server-sent event stream of the caller's notifications. Delivery is at-most-once; the durable inbox at /notifications is the source of truth.",
                "produces": ["text/event-stream"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Event stream opened"},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Salesflow API",
	Description:      "Salesflow Workflow Engine API Documentation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
