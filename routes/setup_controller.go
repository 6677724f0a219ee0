package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/config"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/log"
)

// GetSetup reports the store parameters the service started with and
// whether the store answers.
func GetSetup(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "connected"
		if err := app.Store.ConnectionTest(r.Context()); err != nil {
			status = err.Error()
		}

		render.JSON(w, r, map[string]any{
			"params":  app.StoreParams.Params(),
			"missing": app.StoreParams.Missing(),
			"envText": app.StoreParams.EnvText(),
			"store":   status,
		})
	}
}

// RenderEnv regenerates the variable lines for edited parameters.
func RenderEnv(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := config.StoreParams{}
		if err := render.DecodeJSON(r.Body, &params); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		render.JSON(w, r, map[string]any{
			"envText": params.EnvText(),
			"missing": params.Missing(),
		})
	}
}
