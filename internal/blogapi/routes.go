package blogapi

import (
	"fmt"
	"net/url"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

// GroupAPI names the route group that holds backend endpoints.
const GroupAPI = "api"

// Route names registered in the api group.
const (
	RouteArticles         = "articles"
	RouteArticle          = "article"
	RouteArticleBySlug    = "article_slug"
	RouteArticleSearch    = "article_search"
	RouteArticleLike      = "article_like"
	RouteArticleComments  = "article_comments"
	RouteComment          = "comment"
	RouteCategories       = "categories"
	RouteCategory         = "category"
	RouteCategoryArticles = "category_articles"
	RouteTags             = "tags"
	RouteTagArticles      = "tag_articles"
	RouteAuthLogin        = "auth_login"
	RouteAuthRegister     = "auth_register"
	RouteAuthLogout       = "auth_logout"
	RouteAuthMe           = "auth_me"
	RouteProfile          = "profile"
)

var defaultPaths = map[string]string{
	RouteArticles:         "/articles",
	RouteArticle:          "/articles/:id",
	RouteArticleBySlug:    "/articles/slug/:slug",
	RouteArticleSearch:    "/articles/search",
	RouteArticleLike:      "/articles/:id/like",
	RouteArticleComments:  "/articles/:id/comments",
	RouteComment:          "/comments/:id",
	RouteCategories:       "/categories",
	RouteCategory:         "/categories/:slug",
	RouteCategoryArticles: "/categories/:slug/articles",
	RouteTags:             "/tags",
	RouteTagArticles:      "/tags/:slug/articles",
	RouteAuthLogin:        "/auth/login",
	RouteAuthRegister:     "/auth/register",
	RouteAuthLogout:       "/auth/logout",
	RouteAuthMe:           "/auth/me",
	RouteProfile:          "/users/profile",
}

// DefaultRoutes returns the endpoint table for an API rooted at baseURL.
// The path component of baseURL prefixes every route.
func DefaultRoutes(baseURL string) (*urlkit.Config, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("blogapi: base url %q must be absolute", baseURL)
	}
	prefix := strings.TrimRight(parsed.Path, "/")

	paths := make(map[string]string, len(defaultPaths))
	for name, path := range defaultPaths {
		paths[name] = prefix + path
	}
	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    GroupAPI,
				BaseURL: parsed.Scheme + "://" + parsed.Host,
				Paths:   paths,
			},
		},
	}, nil
}

// endpoints builds URLs from the api route group.
type endpoints struct {
	group *urlkit.Group
}

func newEndpoints(cfg *urlkit.Config) (*endpoints, error) {
	if cfg == nil {
		return nil, fmt.Errorf("blogapi: route config is nil")
	}
	group, err := lookupGroup(urlkit.NewRouteManager(cfg), GroupAPI)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("blogapi: route group %q not found", GroupAPI)
	}
	return &endpoints{group: group}, nil
}

func (e *endpoints) url(route string, params map[string]any, query url.Values) (string, error) {
	builder, err := safeBuilder(e.group, route)
	if err != nil {
		return "", err
	}
	for key, val := range params {
		builder.WithParam(key, val)
	}
	for key, values := range query {
		for _, v := range values {
			builder.WithQuery(key, v)
		}
	}
	return builder.Build()
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("blogapi: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("blogapi: route %q not found: %v", route, rec)
		}
	}()
	builder = group.Builder(route)
	return builder, nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("blogapi: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("blogapi: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, nil
}
