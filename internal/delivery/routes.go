package delivery

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

//go:embed static
var staticFiles embed.FS

func RegisterRoutes(
	r chi.Router,
	hTr *TranslateHandler,
	hWS *WSHandler,
	perMinute int,
) {
	r.Use(middleware.RequestID)

	// --- страница ---
	static, _ := fs.Sub(staticFiles, "static")
	r.With(httputil.RecoverMiddleware).Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	r.With(httputil.RecoverMiddleware).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})
	r.With(httputil.RecoverMiddleware).Get("/languages", hTr.Languages)

	// --- перевод ---
	r.Group(func(pr chi.Router) {
		if perMinute > 0 {
			pr.Use(httprate.LimitByIP(perMinute, time.Minute))
		}

		pr.With(httputil.RecoverMiddleware).Post("/translate", hTr.Translate)
		// без recover-обёртки: соединение хайджекается апгрейдером
		pr.Get("/ws/translate", hWS.ServeHTTP)
	})
}
