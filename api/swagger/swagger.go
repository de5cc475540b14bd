package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Service",
        "description": "Constraint-driven school timetable generator",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    }
                }
            }
        },
        "/schedules/generator": {
            "post": {
                "summary": "Solve a term into a schedule proposal",
                "responses": {
                    "200": {
                        "description": "Proposal"
                    }
                }
            }
        },
        "/schedule/save": {
            "post": {
                "summary": "Persist a proposal as a semester schedule",
                "responses": {
                    "201": {
                        "description": "Created"
                    }
                }
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
