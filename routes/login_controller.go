package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kuzowebsite/ider-surver/app"
	"github.com/kuzowebsite/ider-surver/httpx"
	"github.com/kuzowebsite/ider-surver/log"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges basic auth email and password for a bearer token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}
		r.Body = io.NopCloser(strings.NewReader(body.Encode()))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, r)
		if resp.Status() == http.StatusUnauthorized {
			httpx.LogStatusMsg(w, http.StatusUnauthorized, log.DebugLevel, "login.credentials", "Invalid email or password")
			return
		}
		resp.Flush(w)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		body := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}

		req, err := http.NewRequestWithContext(r.Context(), "POST", "/", strings.NewReader(body.Encode()))
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
		req.Header.Set("content-length", strconv.Itoa(len(body.Encode())))

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}
