package blogapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-blogfront/internal/apiclient"
	"github.com/goliatone/go-blogfront/internal/identity"
	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

// HeaderIdempotencyKey carries the deterministic draft id on article creation.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	textCodeInputInvalid = "BLOG_INPUT_INVALID"
	textCodeRouteInvalid = "BLOG_ROUTE_INVALID"
)

// ErrClientRequired is returned when NewService receives no client.
var ErrClientRequired = errors.New("blogapi: api client is required")

// LikeResult reports the like state after toggling.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// Service exposes typed calls for the blog backend.
type Service struct {
	client    *apiclient.Client
	endpoints *endpoints
	logger    interfaces.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger overrides the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService builds the typed API surface. A nil routes config uses
// DefaultRoutes for the client's base URL.
func NewService(client *apiclient.Client, routes *urlkit.Config, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if routes == nil {
		defaults, err := DefaultRoutes(client.BaseURL())
		if err != nil {
			return nil, err
		}
		routes = defaults
	}
	eps, err := newEndpoints(routes)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		client:    client,
		endpoints: eps,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// ListArticles returns one page of published articles.
func (s *Service) ListArticles(ctx context.Context, params ListParams) (Page[Article], error) {
	if err := validateInput(params, "list params invalid"); err != nil {
		return Page[Article]{}, err
	}
	return get[Page[Article]](ctx, s, RouteArticles, nil, params.query())
}

// SearchArticles runs a keyword search.
func (s *Service) SearchArticles(ctx context.Context, keyword string, params ListParams) (Page[Article], error) {
	params.Keyword = strings.TrimSpace(keyword)
	if params.Keyword == "" {
		return Page[Article]{}, inputError(errors.New("keyword is required"), "search keyword missing")
	}
	if err := validateInput(params, "list params invalid"); err != nil {
		return Page[Article]{}, err
	}
	return get[Page[Article]](ctx, s, RouteArticleSearch, nil, params.query())
}

// GetArticle loads an article by id.
func (s *Service) GetArticle(ctx context.Context, id int64) (*Article, error) {
	return get[*Article](ctx, s, RouteArticle, idParam(id), nil)
}

// GetArticleBySlug loads an article by slug.
func (s *Service) GetArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, inputError(errors.New("slug is required"), "article slug missing")
	}
	return get[*Article](ctx, s, RouteArticleBySlug, map[string]any{"slug": slug}, nil)
}

// CreateArticle publishes or drafts a new article. The request carries an
// idempotency key derived from author and slug so a resubmitted form does
// not create duplicates.
func (s *Service) CreateArticle(ctx context.Context, author string, in ArticleInput) (*Article, error) {
	if err := validateInput(in, "article input invalid"); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = strings.TrimSpace(in.Title)
	}
	target, err := s.endpoints.url(RouteArticles, nil, nil)
	if err != nil {
		return nil, routeError(err, RouteArticles)
	}
	return apiclient.Fetch[*Article](ctx, s.client, apiclient.Request{
		Method:  http.MethodPost,
		Path:    target,
		Body:    in,
		Headers: map[string]string{HeaderIdempotencyKey: identity.ArticleDraftID(author, slug).String()},
	})
}

// UpdateArticle replaces the editable fields of an article.
func (s *Service) UpdateArticle(ctx context.Context, id int64, in ArticleInput) (*Article, error) {
	if err := validateInput(in, "article input invalid"); err != nil {
		return nil, err
	}
	return send[*Article](ctx, s, http.MethodPut, RouteArticle, idParam(id), in)
}

// DeleteArticle removes an article.
func (s *Service) DeleteArticle(ctx context.Context, id int64) error {
	_, err := send[json.RawMessage](ctx, s, http.MethodDelete, RouteArticle, idParam(id), nil)
	return err
}

// LikeArticle toggles the current user's like.
func (s *Service) LikeArticle(ctx context.Context, id int64) (LikeResult, error) {
	return send[LikeResult](ctx, s, http.MethodPost, RouteArticleLike, idParam(id), nil)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return get[[]Category](ctx, s, RouteCategories, nil, nil)
}

// GetCategory loads a category by slug.
func (s *Service) GetCategory(ctx context.Context, slug string) (*Category, error) {
	return get[*Category](ctx, s, RouteCategory, map[string]any{"slug": slug}, nil)
}

// CategoryArticles lists articles filed under a category.
func (s *Service) CategoryArticles(ctx context.Context, slug string, params ListParams) (Page[Article], error) {
	if err := validateInput(params, "list params invalid"); err != nil {
		return Page[Article]{}, err
	}
	return get[Page[Article]](ctx, s, RouteCategoryArticles, map[string]any{"slug": slug}, params.query())
}

// ListTags returns all tags.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	return get[[]Tag](ctx, s, RouteTags, nil, nil)
}

// TagArticles lists articles carrying a tag.
func (s *Service) TagArticles(ctx context.Context, slug string, params ListParams) (Page[Article], error) {
	if err := validateInput(params, "list params invalid"); err != nil {
		return Page[Article]{}, err
	}
	return get[Page[Article]](ctx, s, RouteTagArticles, map[string]any{"slug": slug}, params.query())
}

// ListComments returns the comment thread of an article.
func (s *Service) ListComments(ctx context.Context, articleID int64) ([]Comment, error) {
	return get[[]Comment](ctx, s, RouteArticleComments, idParam(articleID), nil)
}

// CreateComment posts a comment on an article.
func (s *Service) CreateComment(ctx context.Context, articleID int64, in CommentInput) (*Comment, error) {
	if err := validateInput(in, "comment input invalid"); err != nil {
		return nil, err
	}
	return send[*Comment](ctx, s, http.MethodPost, RouteArticleComments, idParam(articleID), in)
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	_, err := send[json.RawMessage](ctx, s, http.MethodDelete, RouteComment, idParam(id), nil)
	return err
}

// Login signs in and stores the token in the persistent store when
// in.Remember is set, otherwise in the session store.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateInput(in, "login input invalid"); err != nil {
		return nil, err
	}
	result, err := send[*LoginResult](ctx, s, http.MethodPost, RouteAuthLogin, nil, in)
	if err != nil {
		return nil, err
	}
	if result == nil || strings.TrimSpace(result.Token) == "" {
		return nil, goerrors.New("login response carried no token", goerrors.CategoryAuth).
			WithTextCode("BLOG_LOGIN_TOKEN_MISSING")
	}
	s.client.Credentials().Store(ctx, result.Token, in.Remember)
	s.logger.Info("blog.auth.login", "remember", in.Remember)
	return result, nil
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validateInput(in, "register input invalid"); err != nil {
		return nil, err
	}
	return send[*User](ctx, s, http.MethodPost, RouteAuthRegister, nil, in)
}

// Logout ends the backend session. Stored tokens are cleared even when the
// backend call fails.
func (s *Service) Logout(ctx context.Context) error {
	_, err := send[json.RawMessage](ctx, s, http.MethodPost, RouteAuthLogout, nil, nil)
	s.client.Credentials().Clear(ctx)
	s.logger.Info("blog.auth.logout")
	return err
}

// CurrentUser returns the signed in user.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	return get[*User](ctx, s, RouteAuthMe, nil, nil)
}

// UpdateProfile edits the signed in user's profile.
func (s *Service) UpdateProfile(ctx context.Context, in ProfileInput) (*User, error) {
	if err := validateInput(in, "profile input invalid"); err != nil {
		return nil, err
	}
	return send[*User](ctx, s, http.MethodPut, RouteProfile, nil, in)
}

func get[T any](ctx context.Context, s *Service, route string, params map[string]any, query url.Values) (T, error) {
	var zero T
	target, err := s.endpoints.url(route, params, query)
	if err != nil {
		return zero, routeError(err, route)
	}
	return apiclient.Fetch[T](ctx, s.client, apiclient.Request{Method: http.MethodGet, Path: target})
}

func send[T any](ctx context.Context, s *Service, method, route string, params map[string]any, body any) (T, error) {
	var zero T
	target, err := s.endpoints.url(route, params, nil)
	if err != nil {
		return zero, routeError(err, route)
	}
	return apiclient.Fetch[T](ctx, s.client, apiclient.Request{Method: method, Path: target, Body: body})
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	for key, value := range map[string]string{
		"category": p.Category,
		"tag":      p.Tag,
		"sort":     p.Sort,
		"keyword":  p.Keyword,
	} {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			q.Set(key, trimmed)
		}
	}
	return q
}

func idParam(id int64) map[string]any {
	return map[string]any{"id": strconv.FormatInt(id, 10)}
}

type validatable interface {
	Validate() error
}

func validateInput(in validatable, message string) error {
	if err := in.Validate(); err != nil {
		return inputError(err, message)
	}
	return nil
}

func inputError(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(textCodeInputInvalid)
}

func routeError(err error, route string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "endpoint could not be built").
		WithTextCode(textCodeRouteInvalid).
		WithMetadata(map[string]any{"route": route})
}
