// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init` after changing handler annotations.
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
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/signup": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new user",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Email already registered"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in with email and password",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/plan-settings": {
            "get": {
                "tags": ["Plans"],
                "summary": "List plan settings",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Plans"],
                "summary": "Create or update one plan",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admin only"}}
            }
        },
        "/prompt": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Generation"],
                "summary": "Generate the topic tree of a new course",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Plan limit"}}
            }
        },
        "/course": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Courses"],
                "summary": "Create a course and generate its first lesson",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/course/{courseID}/subtopic": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Courses"],
                "summary": "Generate one lesson of a course",
                "parameters": [{"type": "string", "name": "courseID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Concurrent update"}}
            }
        },
        "/courses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Courses"],
                "summary": "List a user's courses",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/update": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Courses"],
                "summary": "Replace course content if the version matches",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Version mismatch"}}
            }
        },
        "/aiexam": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Exams"],
                "summary": "Generate the final exam of a course",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/subscriptions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Subscriptions"],
                "summary": "Record a confirmed purchase",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/banktransfer": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Bank transfers"],
                "summary": "Submit a bank transfer receipt",
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Admin dashboard counters",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/contact": {
            "post": {
                "tags": ["Contact"],
                "summary": "Submit the public contact form",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "AI Course Generator API",
	Description:      "Course generation, progress, exams and subscriptions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
