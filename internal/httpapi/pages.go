// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Urang Market Contributors

package httpapi

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The HTML surface is deliberately thin: three server-rendered pages that
// exercise the session guard. Real clients talk to the JSON API.
var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "layout_head"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<nav><a href="/">Home</a> | <a href="/profile">Profile</a> | <a href="/auth">Sign in</a></nav>
{{end}}
{{define "layout_foot"}}</body>
</html>
{{end}}

{{define "home"}}{{template "layout_head" .}}
<h1>Urang Market Accounts</h1>
<p>Sign up or sign in to manage your account.</p>
{{template "layout_foot" .}}{{end}}

{{define "auth"}}{{template "layout_head" .}}
<h1>Sign in</h1>
<form method="post" action="/api/auth/login">
  <label>Email <input type="email" name="email" required></label>
  <label>Password <input type="password" name="password" required></label>
  <button type="submit">Sign in</button>
</form>
<p>No account yet? Use the signup API at <code>POST /api/auth/signup</code>.</p>
{{template "layout_foot" .}}{{end}}

{{define "profile"}}{{template "layout_head" .}}
<h1>Your profile</h1>
<p>Signed in as <strong>{{.Email}}</strong>.</p>
<form method="post" action="/api/auth/logout">
  <button type="submit">Sign out</button>
</form>
{{template "layout_foot" .}}{{end}}
`))

type pageData struct {
	Title string
	Email string
}

func renderPage(c *gin.Context, name string, data pageData) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pageTemplates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// handleHomePage serves the public landing page.
func (s *Server) handleHomePage(c *gin.Context) {
	renderPage(c, "home", pageData{Title: "Urang Market"})
}

// handleAuthPage serves the public login page.
func (s *Server) handleAuthPage(c *gin.Context) {
	renderPage(c, "auth", pageData{Title: "Sign in"})
}

// handleProfilePage serves the protected profile page. RedirectAnonymous has
// already established the identity.
func (s *Server) handleProfilePage(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/auth")
		c.Abort()
		return
	}
	renderPage(c, "profile", pageData{Title: "Profile", Email: identity.Email})
}
