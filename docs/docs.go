// Package docs holds the OpenAPI description served at /swagger.
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
        "/datasets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "List datasets",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "page offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.DatasetListResult"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Upload a CSV dataset",
                "parameters": [
                    {"type": "file", "description": "CSV file, first column is the row index", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "dataset name", "name": "name", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Dataset"}}
                }
            }
        },
        "/datasets/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Get dataset metadata",
                "parameters": [
                    {"type": "string", "description": "dataset id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Dataset"}}
                }
            },
            "delete": {
                "tags": ["datasets"],
                "summary": "Delete a dataset",
                "parameters": [
                    {"type": "string", "description": "dataset id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/datasets/{id}/download": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Get a pre-signed download URL for the dataset CSV",
                "parameters": [
                    {"type": "string", "description": "dataset id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/analyses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "List analysis runs",
                "parameters": [
                    {"type": "string", "description": "correlation, covariates or missing", "name": "kind", "in": "query"},
                    {"type": "integer", "default": 10, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "page offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AnalysisListResult"}}
                }
            }
        },
        "/analyses/correlation": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Correlate features with clinical scales",
                "parameters": [
                    {"description": "datasets and scale settings", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CorrelationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.CorrelationResult"}}
                }
            }
        },
        "/analyses/covariates": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Regress covariates out of features",
                "parameters": [
                    {"description": "feature and covariate datasets", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CovariateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.CovariateResult"}}
                }
            }
        },
        "/analyses/missing": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Report and plot missing values of a dataset",
                "parameters": [
                    {"description": "dataset and figure settings", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.MissingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.MissingResult"}}
                }
            }
        },
        "/analyses/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Get an analysis run",
                "parameters": [
                    {"type": "string", "description": "analysis id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Analysis"}}
                }
            }
        },
        "/analyses/{id}/report": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Get a pre-signed URL for the report of an analysis",
                "parameters": [
                    {"type": "string", "description": "analysis id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "model.Dataset": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "filename": {"type": "string"},
                "storage_path": {"type": "string"},
                "rows": {"type": "integer"},
                "columns": {"type": "integer"},
                "column_names": {"type": "array", "items": {"type": "string"}},
                "size": {"type": "integer"},
                "content_type": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "model.Analysis": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["correlation", "covariates", "missing"]},
                "status": {"type": "string", "enum": ["succeeded", "failed"]},
                "dataset_ids": {"type": "array", "items": {"type": "string"}},
                "params": {"type": "object"},
                "summary": {"type": "object"},
                "report_path": {"type": "string"},
                "report_content_type": {"type": "string"},
                "error": {"type": "string"},
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        },
        "analysis.Setting": {
            "type": "object",
            "properties": {
                "scale": {"type": "string"},
                "field_name": {"type": "string"},
                "correlation": {"type": "array", "items": {"type": "string", "enum": ["pearson", "spearman", "kendall"]}}
            }
        },
        "analysis.FigureSettings": {
            "type": "object",
            "properties": {
                "width": {"type": "number"},
                "height": {"type": "number"},
                "colormap": {"type": "string"},
                "line_width": {"type": "number"},
                "line_color": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "service.CorrelationRequest": {
            "type": "object",
            "properties": {
                "features_id": {"type": "string"},
                "clinical_id": {"type": "string"},
                "settings": {"type": "array", "items": {"$ref": "#/definitions/analysis.Setting"}},
                "digits": {"type": "integer"}
            }
        },
        "service.CovariateRequest": {
            "type": "object",
            "properties": {
                "features_id": {"type": "string"},
                "covariates_id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "service.MissingRequest": {
            "type": "object",
            "properties": {
                "dataset_id": {"type": "string"},
                "format": {"type": "string", "enum": ["png", "svg", "pdf"]},
                "figure": {"$ref": "#/definitions/analysis.FigureSettings"}
            }
        },
        "service.CorrelationResult": {
            "type": "object",
            "properties": {
                "analysis": {"$ref": "#/definitions/model.Analysis"},
                "tables": {"type": "array", "items": {"type": "object"}}
            }
        },
        "service.CovariateResult": {
            "type": "object",
            "properties": {
                "analysis": {"$ref": "#/definitions/model.Analysis"},
                "dataset": {"$ref": "#/definitions/model.Dataset"},
                "models": {"type": "array", "items": {"type": "object"}}
            }
        },
        "service.MissingResult": {
            "type": "object",
            "properties": {
                "analysis": {"$ref": "#/definitions/model.Analysis"},
                "report": {"type": "object"}
            }
        },
        "service.DatasetListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Dataset"}},
                "total": {"type": "integer"}
            }
        },
        "service.AnalysisListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Analysis"}},
                "total": {"type": "integer"}
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
	Title:            "Workbench API",
	Description:      "Upload tabular datasets and run correlation, covariate and missing-data analyses.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
