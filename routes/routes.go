package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/health", Health(app))
	api.Get("/questions", Questions(app))

	api.Post("/sessions", CreateSession(app))
	api.Route(`/sessions/{sid}`, func(r chi.Router) {
		r.Get("/", GetSession(app))
		r.Delete("/", DeleteSession(app))
		r.Post("/select", SelectSingle(app))
		r.Post("/toggle", ToggleMultiple(app))
		r.Post("/custom", SetCustomText(app))
		r.Post("/next", Next(app))
		r.Post("/previous", Previous(app))
		r.Post("/submit", Submit(app))
		r.Post("/reset", Reset(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.With(middlewares.BearerFromCookie, middlewares.Admin(app.TokenSecret)).
			Get("/live", Live(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.Admin(app.TokenSecret))

			r.Get("/submissions", ListSubmissions(app))
			r.Get("/submissions/local", LocalSubmissions(app))
			r.Get(`/results/{questionId:^\d+$}`, QuestionResults(app))
			r.Get("/stats", Stats(app))
			r.Get("/export.csv", ExportCSV(app))

			// catalog editor, one working copy per admin
			r.Get("/catalog", GetCatalog(app))
			r.Post("/catalog/questions", AddQuestion(app))
			r.Put(`/catalog/questions/{id:^\d+$}`, UpdateQuestion(app))
			r.Delete(`/catalog/questions/{id:^\d+$}`, DeleteQuestion(app))
			r.Post(`/catalog/questions/{id:^\d+$}/duplicate`, DuplicateQuestion(app))
			r.Post(`/catalog/questions/{id:^\d+$}/move`, MoveQuestion(app))
			r.Post(`/catalog/questions/{id:^\d+$}/options`, AddOption(app))
			r.Delete(`/catalog/questions/{id:^\d+$}/options/{optionId:^\d+$}`, RemoveOption(app))
			r.Post("/catalog/save", SaveCatalog(app))
			r.Post("/catalog/reload", ReloadCatalog(app))

			r.Get("/setup", GetSetup(app))
			r.Post("/setup/env", RenderEnv(app))
		})
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

// The pages live in public/ and private/ next to the binary; they are
// deployed separately.
func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
