package blogapi

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is the public profile of an account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Category groups articles by subject.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	ArticleCount int    `json:"articleCount,omitempty"`
}

// Tag labels articles across categories.
type Tag struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ArticleCount int    `json:"articleCount,omitempty"`
}

// Article is a blog post. Content holds the Markdown source.
type Article struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Summary      string     `json:"summary,omitempty"`
	Content      string     `json:"content,omitempty"`
	Cover        string     `json:"cover,omitempty"`
	Status       string     `json:"status,omitempty"`
	Author       *User      `json:"author,omitempty"`
	Category     *Category  `json:"category,omitempty"`
	Tags         []Tag      `json:"tags,omitempty"`
	ViewCount    int        `json:"viewCount,omitempty"`
	LikeCount    int        `json:"likeCount,omitempty"`
	CommentCount int        `json:"commentCount,omitempty"`
	Liked        bool       `json:"liked,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

// Comment is a reader comment on an article. Replies nest one level.
type Comment struct {
	ID        int64     `json:"id"`
	ArticleID int64     `json:"articleId"`
	ParentID  *int64    `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	Author    *User     `json:"author,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages,omitempty"`
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	if p.TotalPages > 0 {
		return p.Page < p.TotalPages
	}
	return p.PageSize > 0 && p.Page*p.PageSize < p.Total
}

// ListParams narrows article listings. Zero values are omitted from the query.
type ListParams struct {
	Page     int
	PageSize int
	Category string
	Tag      string
	Sort     string
	Keyword  string
}

// MaxPageSize bounds ListParams.PageSize.
const MaxPageSize = 100

var sortOrders = []any{"latest", "popular", "oldest"}

// Validate checks paging bounds and the sort key.
func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Page, validation.Min(0)),
		validation.Field(&p.PageSize, validation.Min(0), validation.Max(MaxPageSize)),
		validation.Field(&p.Sort, validation.In(sortOrders...)),
	)
}

// LoginInput carries credentials for a sign in. Remember selects the
// long-lived token store.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"-"`
}

// Validate ensures both credentials are present.
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.By(notBlank("blog.auth.login.username_required", "username is required"))),
		validation.Field(&in.Password, validation.Required),
	)
}

// LoginResult is the payload of a successful sign in.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// RegisterInput creates an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

// Validate checks username length, the email shape and password length.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 32), is.Alphanumeric),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.Nickname, validation.Length(0, 64)),
	)
}

// ArticleInput creates or updates an article.
type ArticleInput struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Content    string   `json:"content"`
	Cover      string   `json:"cover,omitempty"`
	CategoryID int64    `json:"categoryId,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Status     string   `json:"status,omitempty"`
}

var articleStatuses = []any{"draft", "published"}

// Validate checks required fields and the optional cover URL.
func (in ArticleInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.By(notBlank("blog.article.title_required", "title is required")), validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Summary, validation.Length(0, 500)),
		validation.Field(&in.Cover, is.URL),
		validation.Field(&in.CategoryID, validation.Min(int64(0))),
		validation.Field(&in.Status, validation.In(articleStatuses...)),
	)
}

// CommentInput posts a comment, optionally as a reply.
type CommentInput struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// Validate requires non-blank content.
func (in CommentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required, validation.By(notBlank("blog.comment.content_required", "comment is required")), validation.Length(1, 2000)),
	)
}

// ProfileInput updates the signed in user's profile.
type ProfileInput struct {
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// Validate checks optional fields when present.
func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Nickname, validation.Length(0, 64)),
		validation.Field(&in.Email, is.EmailFormat),
		validation.Field(&in.Avatar, is.URL),
		validation.Field(&in.Bio, validation.Length(0, 500)),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
