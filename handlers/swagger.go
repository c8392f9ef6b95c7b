package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>content-platform — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the content endpoints. The three
// kinds expose the same shape under their own path segments.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "content-platform", "version": "v0.1.0" },
  "paths": {
    "/auth/token": {
      "post": { "summary": "Issue an editor access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "access token returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the presented access token", "responses": { "204": { "description": "revoked" } } }
    },
    "/api/v1/catalog": {
      "get": { "summary": "List or search catalog items", "responses": { "200": { "description": "one page of items" } } },
      "post": { "summary": "Create a catalog item", "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" } } }
    },
    "/api/v1/catalog/{id}": {
      "get": { "summary": "Fetch a catalog item", "responses": { "200": { "description": "the item" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Partially update a catalog item", "responses": { "200": { "description": "merged item" } } },
      "delete": { "summary": "Delete a catalog item", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/v1/media": {
      "get": { "summary": "List or search media entries", "responses": { "200": { "description": "one page of entries" } } },
      "post": { "summary": "Create a media entry", "responses": { "201": { "description": "created" } } }
    },
    "/api/v1/media/upload": {
      "post": { "summary": "Upload a media binary and create its entry", "responses": { "201": { "description": "created" }, "400": { "description": "missing file" } } }
    },
    "/api/v1/awards": {
      "get": { "summary": "List or search award listings", "responses": { "200": { "description": "one page of listings, soonest deadline first when searching" } } },
      "post": { "summary": "Create an award listing", "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
