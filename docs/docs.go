// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/gemstrack/main.go
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/api/v1/health": {
            "get": {"tags": ["System"], "summary": "health check", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/auth/login": {
            "post": {"tags": ["Auth"], "summary": "operator login", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}
        },
        "/api/v1/settings": {
            "get": {"tags": ["Settings"], "summary": "current shop settings", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Settings"], "summary": "update shop settings", "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid or negative value"}}}
        },
        "/api/v1/catalog/products": {
            "get": {"tags": ["Catalog"], "summary": "list products", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Catalog"], "summary": "create a product", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/catalog/scan": {
            "get": {"tags": ["Catalog"], "summary": "resolve a scanned tag", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "409": {"description": "Sold"}}}
        },
        "/api/v1/pricing/quote": {
            "post": {"tags": ["Pricing"], "summary": "price items at current rates", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/sales/checkout": {
            "post": {"tags": ["Sales"], "summary": "checkout a cart", "responses": {"200": {"description": "Replayed"}, "201": {"description": "Created"}}}
        },
        "/api/v1/sales/orders": {
            "get": {"tags": ["Sales"], "summary": "list custom orders", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Sales"], "summary": "create a custom order", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/hisaab/overview": {
            "get": {"tags": ["Hisaab"], "summary": "receivables and payables", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/hisaab/{type}/{id}": {
            "get": {"tags": ["Hisaab"], "summary": "counterparty statement", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/labels/render": {
            "post": {"tags": ["Labels"], "summary": "render product tags", "responses": {"200": {"description": "ZPL or PDF"}}}
        },
        "/api/v1/labels/print": {
            "post": {"tags": ["Printer"], "summary": "print product tags", "responses": {"201": {"description": "Queued"}}}
        },
        "/api/v1/shopify/sync": {
            "post": {"tags": ["Shopify"], "summary": "manually trigger shopify sync", "responses": {"200": {"description": "OK"}, "409": {"description": "Already running"}, "503": {"description": "Disabled"}}}
        },
        "/api/v1/analytics/summary": {
            "get": {"tags": ["Analytics"], "summary": "sales summary", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/system/schedulers": {
            "get": {"tags": ["Schedulers"], "summary": "get the scheduler list", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GemsTrack POS API",
	Description:      "Back office API of the GemsTrack jewellery point of sale.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
