package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-portal/core/studyplan"
)

type RoutesResponse struct {
	Default studyplan.Route   `json:"default"`
	Routes  []studyplan.Route `json:"routes"`
}

func registerRoutesAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	g.GET("/routes", listRoutes, jwt, adminMiddleware())
}

// listRoutes lists the pages of the admin area a portal may navigate to.
func listRoutes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, RoutesResponse{
		Default: studyplan.Default(),
		Routes:  studyplan.Routes(),
	})
}
