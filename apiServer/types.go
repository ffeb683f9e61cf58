package apiServer

import (
	"embed"
	"html/template"
)

//go:embed templates/main_form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/main_form.html"))

type obscureRequest struct {
	Text              string `json:"text"`
	ExpirationSeconds int    `json:"expiration_seconds"`
}

type clarifyRequest struct {
	Key          string `json:"key"`
	ObscuredText string `json:"obscured_text"`
}

type errorResponse struct {
	Kind   string   `json:"kind,omitempty"`
	Errors []string `json:"errors"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type formData struct {
	ClearText         string
	ObscuredText      string
	Key               string
	ClarifiedText     string
	ExpirationSeconds int
	Errors            []string
}
