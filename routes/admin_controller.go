package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/kuzowebsite/ider-surver/aggregate"
	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/catalog"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/log"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/kuzowebsite/ider-surver/store"
	"github.com/pkg/errors"
)

type submissionItem struct {
	model.Submission
	Age string `json:"age"`
}

func withAges(submissions []model.Submission, now time.Time) []submissionItem {
	items := make([]submissionItem, len(submissions))
	for i, s := range submissions {
		items[i] = submissionItem{s, humanize.RelTime(s.Timestamp, now, "ago", "from now")}
	}
	return items
}

// ListSubmissions pages through the stored submissions, newest first.
func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			var err error
			page, err = strconv.Atoi(p)
			if err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.page")
				return
			}
		}
		mobile, _ := strconv.ParseBool(r.URL.Query().Get("mobile"))

		submissions, err := app.Store.ListSubmissions(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "store.list_submissions", err)
			return
		}

		p := aggregate.Paginate(store.NewestFirst(submissions), page, aggregate.PerPageFor(mobile))
		render.JSON(w, r, map[string]any{
			"items":   withAges(p.Items, time.Now()),
			"page":    p.Page,
			"pages":   p.Pages,
			"perPage": p.PerPage,
			"total":   p.Total,
		})
	}
}

func LocalSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		local := store.NewestFirst(app.Sink.Local())
		render.JSON(w, r, map[string]any{
			"items": withAges(local, time.Now()),
			"total": len(local),
		})
	}
}

func QuestionResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, err := strconv.Atoi(chi.URLParam(r, "questionId"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.question_id")
			return
		}

		order := aggregate.ByCount
		switch o := r.URL.Query().Get("order"); o {
		case "", string(aggregate.ByCount):
		case string(aggregate.CatalogOrder):
			order = aggregate.CatalogOrder
		default:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.order", "unknown order %q", o)
			return
		}

		submissions, err := app.Store.ListSubmissions(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "store.list_submissions", err)
			return
		}
		questions, _ := catalog.Load(r.Context(), app.Store)

		results, err := aggregate.QuestionResults(submissions, questions, questionID, order)
		if errors.Is(err, aggregate.ErrQuestionNotFound) {
			httpx.LogNotFound(w, "results.question", questionID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "results.aggregate", err)
			return
		}

		render.JSON(w, r, results)
	}
}

func Stats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissions, err := app.Store.ListSubmissions(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "store.list_submissions", err)
			return
		}
		questions, source := catalog.Load(r.Context(), app.Store)

		render.JSON(w, r, map[string]any{
			"stats":         aggregate.Summarize(submissions, questions),
			"local":         len(app.Sink.Local()),
			"catalogSource": source,
		})
	}
}

func ExportCSV(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissions, err := app.Store.ListSubmissions(r.Context())
		if err != nil {
			httpx.LogStoreError(w, "store.list_submissions", err)
			return
		}
		questions, _ := catalog.Load(r.Context(), app.Store)

		w.Header().Set("content-type", "text/csv; charset=utf-8")
		w.Header().Set("content-disposition", `attachment; filename="`+aggregate.ExportFilename(time.Now())+`"`)
		err = aggregate.WriteCSV(w, store.NewestFirst(submissions), questions)
		if err != nil {
			log.Errorf("export.write: %s", err)
		}
	}
}

// Live streams snapshots over a WebSocket.
func Live(app app.App) http.HandlerFunc {
	return app.Hub.ServeWS
}
