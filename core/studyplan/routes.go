// Package studyplan declares the study-plan pages of the admin area.
package studyplan

import (
	"net/url"
	"path"
	"strings"
)

const BasePath = "/admin/hoctap-boiduong"

type Page string

const (
	PagePlan     Page = "plan"
	PageList     Page = "list"
	PageRegister Page = "register"
	PageDetail   Page = "detail"
)

type Route struct {
	Page  Page   `json:"page"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

var routes = []Route{
	{Page: PagePlan, Path: BasePath + "/kehoach-hoctap-boiduong", Title: "Study plans"},
	{Page: PageList, Path: BasePath + "/danhsach-hoctap-boiduong", Title: "Study plan list"},
	{Page: PageRegister, Path: BasePath + "/dangky-hoctap-boiduong", Title: "Study plan registration"},
	{Page: PageDetail, Path: BasePath + "/chitiet-kehoach", Title: "Study plan detail"},
}

// Routes returns the route table in declaration order.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup finds the route a navigation target points to.
// The query string and a trailing slash of target are ignored.
func Lookup(target string) (Route, bool) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil || u.Path == "" || u.Host != "" {
		return Route{}, false
	}
	p := path.Clean(u.Path)
	for _, r := range routes {
		if r.Path == p {
			return r, true
		}
	}
	return Route{}, false
}

// Default is the landing page of the admin area.
func Default() Route {
	return routes[0]
}
