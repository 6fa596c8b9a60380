package swagger

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
        "/api/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "API banner",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.MessageResponse"}}
                }
            }
        },
        "/api/rates": {
            "get": {
                "description": "Quotes from every bureau, in bureau order",
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Latest rate snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/rates.Snapshot"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            }
        },
        "/api/rates/refresh": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Force a new collection",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/rates.Snapshot"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            }
        },
        "/api/compare": {
            "get": {
                "produces": ["application/json"],
                "tags": ["compare"],
                "summary": "Best rates and gold-ounce spread",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/compare.View"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            }
        },
        "/api/bureaus": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "List bureaus",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/api.BureauDTO"}}}
                }
            }
        },
        "/api/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Snapshot freshness and refresh job state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.StatusResponse"}}
                }
            }
        },
        "/api/settings/refresh_interval": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Effective refresh job cadence",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SettingDTO"}},
                    "503": {"description": "no storage", "schema": {"type": "string"}}
                }
            },
            "put": {
                "description": "The value is integer seconds or a standard cron expression. Running workers pick it up within a second.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Change the refresh job cadence",
                "parameters": [
                    {"description": "new value", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.SettingDTO"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SettingDTO"}},
                    "400": {"description": "invalid interval", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "api.SettingDTO": {
            "type": "object",
            "properties": {"key": {"type": "string"}, "value": {"type": "string"}}
        },
        "api.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "api.BureauDTO": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "name": {"type": "string"},
                "url": {"type": "string"},
                "group": {"type": "string", "enum": ["fx", "gold-ounce"]},
                "kind": {"type": "string"},
                "position": {"type": "integer"}
            }
        },
        "api.StatusResponse": {
            "type": "object",
            "properties": {
                "snapshot_id": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "age_seconds": {"type": "number"},
                "bureaus": {"type": "integer"},
                "refresh_interval": {"type": "string"},
                "job": {"$ref": "#/definitions/storage.ScheduledJob"}
            }
        },
        "storage.ScheduledJob": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "last_run_at": {"type": "string", "format": "date-time"},
                "last_duration_ms": {"type": "integer"},
                "last_success": {"type": "integer"},
                "last_error": {"type": "string"}
            }
        },
        "rates.QuotePair": {
            "type": "object",
            "properties": {
                "buy": {"type": "number"},
                "sell": {"type": "number"}
            }
        },
        "rates.SourceQuote": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "url": {"type": "string"},
                "group": {"type": "string", "enum": ["fx", "gold-ounce"]},
                "status": {"type": "string", "enum": ["success", "error"]},
                "rates": {"type": "object", "additionalProperties": {"$ref": "#/definitions/rates.QuotePair"}},
                "last_updated": {"type": "string", "format": "date-time"},
                "error_message": {"type": "string"}
            }
        },
        "rates.Snapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "sources": {"type": "array", "items": {"$ref": "#/definitions/rates.SourceQuote"}}
            }
        },
        "compare.Best": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "index": {"type": "integer"},
                "rate": {"type": "number"}
            }
        },
        "compare.Cell": {
            "type": "object",
            "properties": {
                "buy": {"type": "number"},
                "sell": {"type": "number"},
                "buy_text": {"type": "string"},
                "sell_text": {"type": "string"},
                "best_buy": {"type": "boolean"},
                "best_sell": {"type": "boolean"}
            }
        },
        "compare.Row": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "url": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "string"},
                "cells": {"type": "object", "additionalProperties": {"$ref": "#/definitions/compare.Cell"}}
            }
        },
        "compare.Winner": {
            "type": "object",
            "properties": {
                "currency": {"type": "string"},
                "buy": {"$ref": "#/definitions/compare.Best"},
                "sell": {"$ref": "#/definitions/compare.Best"},
                "buy_text": {"type": "string"},
                "sell_text": {"type": "string"}
            }
        },
        "compare.GoldView": {
            "type": "object",
            "properties": {
                "istanbul_source": {"type": "string"},
                "london_source": {"type": "string"},
                "istanbul": {"$ref": "#/definitions/rates.QuotePair"},
                "london": {"$ref": "#/definitions/rates.QuotePair"},
                "sell_diff": {"type": "number"},
                "sell_diff_percent": {"type": "number"},
                "sell_diff_try": {"type": "number"},
                "sell_diff_text": {"type": "string"},
                "sell_diff_percent_text": {"type": "string"},
                "sell_diff_try_text": {"type": "string"}
            }
        },
        "compare.View": {
            "type": "object",
            "properties": {
                "snapshot_id": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "currencies": {"type": "array", "items": {"type": "string"}},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/compare.Row"}},
                "best": {"type": "array", "items": {"$ref": "#/definitions/compare.Winner"}},
                "gold": {"$ref": "#/definitions/compare.GoldView"},
                "gold_status": {"type": "string", "enum": ["ok", "no data"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "fxratemanager API",
	Description:      "Currency exchange rate comparison across bureaus, with best-rate selection and the Istanbul/London gold-ounce spread.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
