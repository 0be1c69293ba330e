package main

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/studyplan"
	"github.com/trezcool/masomo-portal/services/authsvc"
)

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrForbidden    = errors.New("admin area is restricted to admins")
)

const routesPath = "/v1/routes"

type routeFetcher interface {
	Get(ctx context.Context, path string, out interface{}) error
}

type routesResponse struct {
	Default studyplan.Route   `json:"default"`
	Routes  []studyplan.Route `json:"routes"`
}

// router moves the user between the pages of the admin area.
// The route table is fetched from the API once; the built-in table is used when the API cannot serve it.
type router struct {
	api    routeFetcher
	logger core.Logger
	title  session.TitleSetter

	mu      sync.Mutex
	routes  map[string]studyplan.Route
	current string
	arrived chan struct{}
}

var _ session.Navigator = (*router)(nil)

func newRouter(api routeFetcher, title session.TitleSetter, logger core.Logger) *router {
	return &router{api: api, title: title, logger: logger, arrived: make(chan struct{})}
}

func (r *router) loadRoutes(ctx context.Context) (map[string]studyplan.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.routes != nil {
		return r.routes, nil
	}

	routes := studyplan.Routes()
	var res routesResponse
	if err := r.api.Get(ctx, routesPath, &res); err != nil {
		var apiErr *authsvc.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
			return nil, ErrForbidden
		}
		r.logger.Warn("portal: fetching routes, using the built-in table", err)
	} else if len(res.Routes) > 0 {
		routes = res.Routes
	}

	r.routes = make(map[string]studyplan.Route, len(routes))
	for _, rt := range routes {
		r.routes[rt.Path] = rt
	}
	return r.routes, nil
}

func (r *router) Navigate(ctx context.Context, target string, params session.Params) error {
	routes, err := r.loadRoutes(ctx)
	if err != nil {
		return err
	}
	// validate the shape of target first, then match it against the fetched table
	known, ok := studyplan.Lookup(target)
	if !ok {
		return errors.Wrap(ErrUnknownRoute, target)
	}
	route, ok := routes[known.Path]
	if !ok {
		return errors.Wrap(ErrUnknownRoute, target)
	}

	location := route.Path
	if q := encodeParams(params); q != "" {
		location += "?" + q
	}

	r.mu.Lock()
	first := r.current == ""
	r.current = location
	r.mu.Unlock()

	if r.title != nil {
		r.title.SetTitle(route.Title)
	}
	r.logger.Info("portal: navigated to " + location)
	if first {
		close(r.arrived)
	}
	return nil
}

// Current returns the location of the page being shown, if any.
func (r *router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Arrived is closed on the first successful navigation.
func (r *router) Arrived() <-chan struct{} { return r.arrived }

func encodeParams(params session.Params) string {
	if len(params) == 0 {
		return ""
	}
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	return v.Encode()
}
