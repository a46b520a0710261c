package web

import "embed"

// StaticFiles embeds the browser adapter script and stylesheet.
//
//go:embed static/*
var StaticFiles embed.FS
