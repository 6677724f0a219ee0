package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/catalog"
	"github.com/kuzowebsite/ider-surver/log"
)

// Health writes the connection_test document and reads it back.
func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.Store.ConnectionTest(r.Context())
		if err != nil {
			log.Warnf("health.store: %s", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]any{
				"store": "unavailable",
				"error": err.Error(),
			})
			return
		}

		render.JSON(w, r, map[string]any{
			"store": "ok",
		})
	}
}

func Questions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, source := catalog.Load(r.Context(), app.Store)
		render.JSON(w, r, map[string]any{
			"questions": questions,
			"source":    source,
		})
	}
}
