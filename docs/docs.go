// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "summary": "Service health",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/auth/signup": {
            "post": {
                "summary": "Register a new account",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/auth/login": {
            "post": {
                "summary": "Log in with email and password",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/animals": {
            "get": {
                "summary": "List the caller's animals",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Add an animal (free tier limited to 5)",
                "responses": {
                    "201": {"description": "Created"},
                    "402": {"description": "Upgrade required"}
                }
            }
        },
        "/v1/animals/{id}/events": {
            "get": {
                "summary": "List care events for an animal",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Log a care event",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/billing/checkout": {
            "post": {
                "summary": "Create a Stripe checkout session",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/billing/subscription": {
            "get": {
                "summary": "Current plan status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/webhooks/stripe": {
            "post": {
                "summary": "Stripe webhook receiver",
                "responses": {
                    "200": {"description": "Received"},
                    "400": {"description": "Signature failure"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "critterlog API",
	Description:      "Animal collection tracking with Pro subscriptions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
