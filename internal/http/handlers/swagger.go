package handlers

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec []byte

// swagger-ui is pinned to a major version on unpkg; the CSP for /docs allows it.
const docsPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>WorkLink API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "/docs/openapi.yaml", dom_id: "#docs", deepLinking: true, persistAuthorization: true});
</script>
</body>
</html>`

var openAPIETag = func() string {
	sum := sha256.Sum256(openAPISpec)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

func SwaggerUI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}

// OpenAPISpec serves the embedded document. It only changes with a deploy, so
// clients revalidate with a strong ETag.
func OpenAPISpec(ctx *gin.Context) {
	ctx.Header("ETag", openAPIETag)
	ctx.Header("Cache-Control", "public, max-age=300")
	if etagMatches(ctx.GetHeader("If-None-Match"), openAPIETag) {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", openAPISpec)
}
