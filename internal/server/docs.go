package server

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.json
var openAPIDocument []byte

//go:embed redoc.html
var redocPage []byte

// docsContentSecurityPolicy replaces the API-wide policy on the viewer page
// so the Redoc bundle can load and render.
const docsContentSecurityPolicy = "default-src 'none'; " +
	"script-src https://cdn.redoc.ly; " +
	"style-src 'unsafe-inline' https://fonts.googleapis.com; " +
	"font-src https://fonts.gstatic.com; " +
	"img-src 'self' data: https://cdn.redoc.ly; " +
	"connect-src 'self'; " +
	"worker-src blob:; " +
	"frame-ancestors 'none'"

func registerDocsRoutes(router *gin.Engine) {
	router.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Security-Policy", docsContentSecurityPolicy)
		c.Data(http.StatusOK, "text/html; charset=utf-8", redocPage)
	})

	router.GET("/docs/swagger.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", openAPIDocument)
	})
}
