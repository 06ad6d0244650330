// Package http provides the site HTTP adapter for the blog front-end.
//
// Routes mount under /api by default:
//   - Markdown preview: POST /markdown/render
//   - Articles: GET /articles, /articles/{id}, /articles/slug/{slug}
//   - Local articles: GET /local/{path...} from the configured content directory
//
// Article responses carry the backend record plus its rendered HTML and
// table of contents. Upstream failures keep their HTTP status; calls that
// never reached the backend answer 502.
//
// Host applications can register handlers on their own mux/router as needed.
package http
