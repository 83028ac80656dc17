package routes

import (
	"github.com/ahmedelhadi17776/streaky/internal/api/dto"
	"github.com/ahmedelhadi17776/streaky/internal/api/handlers"
	"github.com/ahmedelhadi17776/streaky/internal/api/middleware"
	"github.com/ahmedelhadi17776/streaky/pkg/security/auth"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// ListsRoutes handles the setup of list and overall routes
type ListsRoutes struct {
	handler *handlers.ListsHandler
	tokens  *auth.TokenService
}

func NewListsRoutes(handler *handlers.ListsHandler, tokens *auth.TokenService) *ListsRoutes {
	return &ListsRoutes{
		handler: handler,
		tokens:  tokens,
	}
}

// RegisterRoutes registers the authenticated record routes
func (r *ListsRoutes) RegisterRoutes(router gin.IRouter, validation *middleware.ValidationMiddleware) {
	authMiddleware := middleware.NewAuthMiddleware(r.tokens)

	ls := router.Group("/lists")
	ls.Use(authMiddleware)

	// The full list collection is the only large response.
	ls.GET("", gzip.Gzip(gzip.DefaultCompression), r.handler.ListLists)
	ls.POST("", validation.ValidateRequest(&dto.ListRequest{}), r.handler.CreateList)
	ls.PUT("/:id", validation.ValidateRequest(&dto.ListRequest{}), r.handler.UpdateList)
	ls.DELETE("/:id", r.handler.DeleteList)

	overall := router.Group("/overall")
	overall.Use(authMiddleware)

	overall.GET("", r.handler.GetOverall)
	overall.PUT("", validation.ValidateRequest(&dto.OverallRequest{}), r.handler.PutOverall)
}
