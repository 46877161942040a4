// Package web holds the templates and static assets served by cmd/spendly.
package web

import "embed"

// TemplatesFS holds the page and partial templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
