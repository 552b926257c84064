// Package docs holds the OpenAPI document served by the coordinator.
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
        "/api/admin": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Device privilege",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}}
                }
            }
        },
        "/api/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Setpoints",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/coordinator.Setpoints"}}
                }
            },
            "post": {
                "description": "Missing fields are left unchanged.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Update setpoints",
                "parameters": [
                    {"description": "Setpoints", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/coordinator.SetpointsUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/mode": {
            "get": {
                "produces": ["application/json"],
                "tags": ["mode"],
                "summary": "Control mode",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/coordinator.ModeRequest"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["mode"],
                "summary": "Set control mode",
                "parameters": [
                    {"description": "Mode", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/coordinator.ModeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/relay-state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["relays"],
                "summary": "Manual relay overrides",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/coordinator.Relays"}}
                }
            },
            "post": {
                "description": "Accepted only when is_admin matches the privilege last reported by the device.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["relays"],
                "summary": "Write relay overrides",
                "parameters": [
                    {"description": "Overrides", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/coordinator.RelayWriteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/sensors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Latest sensor reading",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/coordinator.Sensors"}}
                }
            },
            "post": {
                "security": [{"BasicAuth": []}],
                "description": "Records the latest reading and returns setpoints and relay overrides.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Device upload",
                "parameters": [
                    {"description": "Device state", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/uplink.Upload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/uplink.Reply"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket; sends {\"type\":\"state\",\"data\":State} every interval (default 1s, max 10s).",
                "tags": ["system"],
                "summary": "Live state stream",
                "parameters": [
                    {"type": "string", "description": "Go duration, e.g. 2s", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "coordinator.ModeRequest": {
            "type": "object",
            "required": ["mode"],
            "properties": {
                "mode": {"description": "Allowed: auto, manual", "type": "string", "example": "manual"}
            }
        },
        "coordinator.RelayWriteRequest": {
            "type": "object",
            "properties": {
                "is_admin": {"description": "Privilege the caller claims; must match the device's.", "type": "boolean", "example": false},
                "compressor_on": {"type": "boolean"},
                "ventilation_on": {"type": "boolean"},
                "heater_on": {"type": "boolean"}
            }
        },
        "coordinator.Relays": {
            "type": "object",
            "properties": {
                "compressor_on": {"type": "boolean"},
                "ventilation_on": {"type": "boolean"},
                "heater_on": {"type": "boolean"}
            }
        },
        "coordinator.Sensors": {
            "type": "object",
            "properties": {
                "temperature": {"type": "number"},
                "evaporator_temperature": {"type": "number"},
                "humidity": {"type": "number"}
            }
        },
        "coordinator.Setpoints": {
            "type": "object",
            "properties": {
                "target_temperature": {"type": "number", "example": 4},
                "defrost_threshold_temperature": {"type": "number", "example": -10},
                "defrost_type": {"type": "string", "example": "AUTO"}
            }
        },
        "coordinator.SetpointsUpdate": {
            "type": "object",
            "properties": {
                "target_temperature": {"type": "number", "example": 3.5},
                "defrost_threshold_temperature": {"type": "number", "example": -12},
                "defrost_type": {"type": "string", "example": "MANUAL_HEATER"}
            }
        },
        "uplink.Reply": {
            "type": "object",
            "properties": {
                "auto_mode": {"type": "boolean"},
                "target_temperature": {"type": "number"},
                "defrost_threshold_temperature": {"type": "number"},
                "defrost_type": {"type": "string"},
                "compressor_on": {"type": "boolean"},
                "ventilation_on": {"type": "boolean"},
                "heater_on": {"type": "boolean"}
            }
        },
        "uplink.Upload": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "temperature": {"type": "number"},
                "humidity": {"type": "number"},
                "evaporator_temperature": {"type": "number"},
                "target_temperature": {"type": "number"},
                "defrost_threshold_temperature": {"type": "number"},
                "defrost_type": {"type": "string"},
                "compressor_on": {"type": "boolean"},
                "ventilation_on": {"type": "boolean"},
                "heater_on": {"type": "boolean"},
                "auto_mode": {"type": "boolean"},
                "status": {"type": "string"},
                "problem": {"type": "boolean"},
                "is_admin": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Fridge Coordinator API",
	Description:      "Coordination service for the refrigeration unit: device sync, manual overrides, mode and setpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
