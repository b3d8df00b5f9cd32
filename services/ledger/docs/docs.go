// Package docs registers the ledger service OpenAPI document with swag.
// Regenerate with: swag init -g services/ledger/cmd/app/main.go -o services/ledger/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/creators/{username}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tips"],
                "summary": "Get creator profile",
                "parameters": [
                    {"type": "string", "description": "Creator username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.CreatorProfileResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/tips/initiate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tips"],
                "summary": "Initiate a tip",
                "parameters": [
                    {"description": "Tip", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.InitiateTipRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.InitiateTipResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.InitiateTipResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/tips/verify/{reference}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tips"],
                "summary": "Verify a tip payment",
                "parameters": [
                    {"type": "string", "description": "Payment reference", "name": "reference", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.VerifyTipResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/webhooks/paystack": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Paystack webhook",
                "parameters": [
                    {"type": "string", "description": "HMAC-SHA512 of the body", "name": "x-paystack-signature", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/me/earnings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["creator"],
                "summary": "Get earnings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.EarningsResponse"}}
                }
            }
        },
        "/me/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["creator"],
                "summary": "List transactions",
                "parameters": [
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/me/withdrawals": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["creator"],
                "summary": "Request a withdrawal",
                "parameters": [
                    {"description": "Withdrawal", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.WithdrawalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.TransactionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/me/ws": {
            "get": {
                "tags": ["creator"],
                "summary": "Live ledger updates",
                "parameters": [
                    {"type": "string", "name": "token", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/admin/creators": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create creator",
                "parameters": [
                    {"description": "Creator", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.CreateCreatorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.CreatorProfileResponse"}}
                }
            }
        },
        "/admin/creators/{id}/reconcile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Check creator balances",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ReconcileResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Repair creator balances",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ReconcileResponse"}}
                }
            }
        },
        "/admin/withdrawals/pending": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Pending withdrawals",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/withdrawals/{id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Approve withdrawal",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TransactionResponse"}}
                }
            }
        },
        "/admin/withdrawals/{id}/decline": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Decline withdrawal",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"description": "Reason", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/http.DeclineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DeclineResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "http.CreatorProfileResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "display_name": {"type": "string"}
            }
        },
        "http.EarningsResponse": {
            "type": "object",
            "properties": {
                "creator_id": {"type": "string"},
                "total_earnings": {"type": "string"},
                "available_balance": {"type": "string"}
            }
        },
        "http.TransactionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "creator_id": {"type": "string"},
                "amount": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string"},
                "payment_reference": {"type": "string"},
                "supporter_name": {"type": "string"},
                "message": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "http.InitiateTipRequest": {
            "type": "object",
            "required": ["amount", "creator_id", "idempotency_key"],
            "properties": {
                "creator_id": {"type": "string"},
                "amount": {"type": "string"},
                "idempotency_key": {"type": "string"},
                "supporter_name": {"type": "string", "maxLength": 100},
                "message": {"type": "string", "maxLength": 500},
                "email": {"type": "string"}
            }
        },
        "http.InitiateTipResponse": {
            "type": "object",
            "properties": {
                "transaction_id": {"type": "string"},
                "reference": {"type": "string"},
                "authorization_url": {"type": "string"},
                "status": {"type": "string"},
                "reused": {"type": "boolean"}
            }
        },
        "http.VerifyTipResponse": {
            "type": "object",
            "properties": {
                "transaction": {"$ref": "#/definitions/http.TransactionResponse"},
                "applied": {"type": "boolean"}
            }
        },
        "http.WithdrawalRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "string"},
                "note": {"type": "string", "maxLength": 500}
            }
        },
        "http.CreateCreatorRequest": {
            "type": "object",
            "required": ["username"],
            "properties": {
                "username": {"type": "string"},
                "display_name": {"type": "string"}
            }
        },
        "http.DeclineRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}}
        },
        "http.DeclineResponse": {
            "type": "object",
            "properties": {
                "withdrawal": {"$ref": "#/definitions/http.TransactionResponse"},
                "refund": {"$ref": "#/definitions/http.TransactionResponse"}
            }
        },
        "http.ReconcileResponse": {
            "type": "object",
            "properties": {
                "creator_id": {"type": "string"},
                "stored_total_earnings": {"type": "string"},
                "stored_available_balance": {"type": "string"},
                "computed_total_earnings": {"type": "string"},
                "computed_available_balance": {"type": "string"},
                "drift": {"type": "boolean"},
                "repaired": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "TikTip Ledger API",
	Description:      "Creator tipping, payment completion and balance ledger",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
