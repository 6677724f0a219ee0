package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/kuzowebsite/ider-surver/httpx"
)

// Admin middleware to check for the 'admin' role in an OAuth token.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		isAdmin := false
		if rolesClaim, ok := claims["roles"]; ok {
			roles := strings.Split(rolesClaim, ",")
			for _, role := range roles {
				if role == "admin" {
					isAdmin = true
					break
				}
			}
		}

		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminEmail returns the email of the admin behind an authorized request.
func AdminEmail(r *http.Request) string {
	if claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string); ok && claims["email"] != "" {
		return claims["email"]
	}
	credential, _ := r.Context().Value(oauth.CredentialContext).(string)
	return credential
}

// BearerFromCookie lets clients that cannot set headers, like browser
// WebSockets, pass the access token as a cookie or an access_token query
// parameter.
func BearerFromCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") == "" {
			if token := r.URL.Query().Get("access_token"); token != "" {
				r.Header.Set("authorization", "Bearer "+token)
			} else if cookie, err := r.Cookie("access_token"); err == nil {
				r.Header.Set("authorization", "Bearer "+cookie.Value)
			}
		}
		next.ServeHTTP(w, r)
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// refresh asks the bearer server for a new token pair.
func refresh(ctx context.Context, bearerServer *oauth.BearerServer, refreshToken string) (tokenResponse, int, error) {
	body := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", "/", strings.NewReader(body))
	if err != nil {
		return tokenResponse{}, 0, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	resp := httpx.NewResponseBuffer()
	bearerServer.UserCredentials(resp, req)
	if resp.Status() != http.StatusOK {
		return tokenResponse{}, resp.Status(), nil
	}

	tokens := tokenResponse{}
	err = json.Unmarshal(resp.Body(), &tokens)
	return tokens, http.StatusOK, err
}

func tokenCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		SameSite: http.SameSiteNoneMode,
	}
}

// CookieAuth serves GET requests with the access_token cookie, renewing it
// from the refresh_token cookie or redirecting to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "GET" {
				h.ServeHTTP(w, r)
				return
			}

			if token, err := r.Cookie("access_token"); err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)
			refreshToken, err := r.Cookie("refresh_token")
			if err != nil {
				w.Header().Set("location", loginLocation)
				w.WriteHeader(http.StatusTemporaryRedirect)
				return
			}

			tokens, status, err := refresh(r.Context(), bearerServer, refreshToken.Value)
			switch {
			case err != nil:
				httpx.LogInternalError(w, "cookie_auth.refresh", err)
				return
			case status == http.StatusUnauthorized:
				w.Header().Set("location", loginLocation)
				http.SetCookie(w, tokenCookie("refresh_token", "", -1))
				w.WriteHeader(http.StatusTemporaryRedirect)
				return
			case status != http.StatusOK:
				http.Error(w, http.StatusText(status), status)
				return
			}

			http.SetCookie(w, tokenCookie("access_token", tokens.AccessToken, tokens.ExpiresIn))
			http.SetCookie(w, tokenCookie("refresh_token", tokens.RefreshToken, 60*60*24*365))

			r.Header.Set("authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
