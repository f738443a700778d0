package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"github.com/wfunc/monopoly-game/docs"
)

// registerOpenAPIRoutes 提供 /openapi.json 与 /docs/redoc
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.json", serveOpenAPI)
	engine.GET("/docs/redoc", serveRedoc)
}

func serveOpenAPI(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

// 离线环境可把 redoc.standalone.js 放到 static/vendors/redoc/ 下并改用本地地址
const redocPage = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Monopoly Game API - Redoc</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="/openapi.json"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </body>
</html>`

func serveRedoc(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(redocPage))
}
