package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is a group of endpoints mounted under Root on each of the
// public, private and admin route groups.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
