package goGallery

import (
	"github.com/MrEthical07/goGallery/router"
)

// galleryRoutes is the route table: a guarded layout holding Home and Images,
// the public Login and Signup pages, and the catch-all NotFound view.
func galleryRoutes(cfg RoutesConfig, guard router.Guard) []router.Route {
	return []router.Route{
		{
			Path: "/",
			Children: []router.Route{
				{Path: cfg.HomePath, Name: RouteHome},
				{Path: cfg.ImagesPath, Name: RouteImages},
			},
			BeforeEnter: guard,
		},
		{Path: cfg.LoginPath, Name: RouteLogin},
		{Path: cfg.SignupPath, Name: RouteSignup},
		{Path: router.CatchAllPath, Name: RouteNotFound},
	}
}
