// Package middleware holds the net/http middleware wrapped around the API.
package middleware

import (
	"net/http"

	"github.com/diewo77/haulage/i18n"
)

// Lang resolves the statement language (query > cookie > Accept-Language)
// and stores it with i18n.WithLang. A query value is persisted in a cookie for
// ~30 days.
func Lang(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
