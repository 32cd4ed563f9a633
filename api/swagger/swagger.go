package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CMS Admin API",
        "description": "Content administration, ingest and site publication backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Ingest", "description": "File upload from the publishing tool"},
        {"name": "Publish", "description": "Page and gallery publication"},
        {"name": "Gallery", "description": "Gallery membership management"},
        {"name": "Resources", "description": "Published resource directory"},
        {"name": "ACL", "description": "Permission group management"}
    ],
    "paths": {
        "/ingest": {
            "post": {
                "tags": ["Ingest"],
                "summary": "Ingest one file",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "X-Ingest-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "meta", "in": "formData", "required": true, "type": "string", "description": "JSON metadata: userId, fileName, filePath, mimeType, sha256sum, metadata, comment, galleryName, galleryDescription"}
                ],
                "responses": {
                    "200": {"description": "Existing file refreshed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "File created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid ingest key"}
                }
            }
        },
        "/pages/{id}/publish": {
            "post": {
                "tags": ["Publish"],
                "summary": "Publish a page now or at a scheduled time",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/PublishRequest"}}
                ],
                "responses": {
                    "200": {"description": "Published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Publish"],
                "summary": "Remove a page from the site",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Unpublished"},
                    "404": {"description": "Page is not published"}
                }
            }
        },
        "/galleries/{id}/publish": {
            "post": {
                "tags": ["Publish"],
                "summary": "Publish a gallery now or at a scheduled time",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/PublishRequest"}}
                ],
                "responses": {
                    "200": {"description": "Published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Publish"],
                "summary": "Remove a gallery and its shipped files from the site",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Unpublished"},
                    "404": {"description": "Gallery is not published"}
                }
            }
        },
        "/galleries": {
            "get": {
                "tags": ["Gallery"],
                "summary": "Search admin galleries by name, description or member file",
                "parameters": [
                    {"name": "search", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Matching galleries"}
                }
            }
        },
        "/galleries/{id}/files": {
            "put": {
                "tags": ["Gallery"],
                "summary": "Replace the ordered file membership of a gallery",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GalleryFilesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Membership replaced", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Gallery not found"}
                }
            }
        },
        "/publish/schedules": {
            "get": {
                "tags": ["Publish"],
                "summary": "List schedule entries",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/publish/schedules/{id}": {
            "get": {
                "tags": ["Publish"],
                "summary": "Get one schedule entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/publish/schedules/{id}/trigger": {
            "post": {
                "tags": ["Publish"],
                "summary": "Put a failed schedule entry back in line",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Requeued"},
                    "409": {"description": "Entry is not retryable"}
                }
            }
        },
        "/publish/schedules/export": {
            "get": {
                "tags": ["Publish"],
                "summary": "Export upcoming schedule entries",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Export document"}
                }
            }
        },
        "/resources": {
            "get": {
                "tags": ["Resources"],
                "summary": "Browse and search published resources",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["SITE_FILE", "GALLERY", "PAGE"]},
                    {"name": "file_type", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "acl_id", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["id", "name", "created"]},
                    {"name": "direction", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/acls": {
            "post": {
                "tags": ["ACL"],
                "summary": "Create a permission group",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AclCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/acls/{aclId}": {
            "get": {
                "tags": ["ACL"],
                "summary": "Get a permission group",
                "parameters": [
                    {"name": "aclId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["ACL"],
                "summary": "Replace the rows of a permission group",
                "parameters": [
                    {"name": "aclId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AclCreateRequest"}}
                ],
                "responses": {
                    "204": {"description": "Replaced"}
                }
            },
            "delete": {
                "tags": ["ACL"],
                "summary": "Delete a permission group",
                "parameters": [
                    {"name": "aclId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/acls/consistency": {
            "get": {
                "tags": ["ACL"],
                "summary": "Run the reference consistency sweep",
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PublishRequest": {
            "type": "object",
            "properties": {
                "publishTime": {"type": "string", "format": "date-time"},
                "message": {"type": "string"}
            }
        },
        "AclCreateRequest": {
            "type": "object",
            "properties": {
                "permissions": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "userId": {"type": "integer"},
                            "unitId": {"type": "integer"},
                            "create": {"type": "boolean"},
                            "read": {"type": "boolean"},
                            "modify": {"type": "boolean"},
                            "delete": {"type": "boolean"}
                        }
                    }
                }
            }
        },
        "GalleryFilesRequest": {
            "type": "object",
            "properties": {
                "fileIds": {
                    "type": "array",
                    "items": {"type": "integer"}
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "size": {"type": "integer"},
                "totalElements": {"type": "integer"},
                "totalPages": {"type": "integer"}
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
