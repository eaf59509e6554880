package http

import (
	"html/template"
	"net/http"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>FACEIT Dashboard</title>
</head>
<body>
  <h1>FACEIT Dashboard</h1>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  {{if .Message}}<p class="message">{{.Message}}</p>{{end}}
  <a href="/auth">Login with FACEIT</a>
</body>
</html>
`))

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>FACEIT Dashboard</title>
</head>
<body>
  <h1>Welcome, {{.Nickname}}</h1>
  <a href="/logout">Logout</a>
</body>
</html>
`))

// Coarse failure codes allowed into the login page. Anything else in
// the query is ignored rather than echoed back.
var loginErrorMessages = map[string]string{
	"provider_error":    "FACEIT rejected the login. Please try again.",
	"no_code":           "The login was not completed. Please try again.",
	"invalid_state":     "The login attempt could not be verified. Please try again.",
	"auth_failed":       "Login failed. Please try again.",
	"store_unavailable": "The service is temporarily unavailable. Please try again shortly.",
}

var loginMessages = map[string]string{
	"logged_out": "You have been logged out.",
}

type loginPageData struct {
	Error   string
	Message string
}

func renderLoginPage(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{
		Error:   loginErrorMessages[r.URL.Query().Get("error")],
		Message: loginMessages[r.URL.Query().Get("message")],
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPage.Execute(w, data)
}

type dashboardPageData struct {
	Nickname string
}

func renderDashboardPage(w http.ResponseWriter, nickname string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = dashboardPage.Execute(w, dashboardPageData{Nickname: nickname})
}
