// FILE: logvault/src/internal/api/response.go
package api

import (
	"errors"

	"logvault/src/internal/core"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// Client-facing messages for the error taxonomy
const (
	msgNoToken          = "No token provided"
	msgInvalidToken     = "Invalid token"
	msgPermissionDenied = "Permission denied. Only admin users can ingest logs."
	msgDuplicateUser    = "Username already exists"
	msgInvalidUser      = "Username is required"
	msgBadCredentials   = "Invalid username or password"
	msgTooManyAttempts  = "Too many login attempts, try again later"
	msgInternal         = "Internal Server Error"
	msgNotFound         = "Not Found"
	msgMethodNotAllowed = "Method Not Allowed"
)

// classify maps an error to its status code and response message
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrAuthMissing):
		return fasthttp.StatusUnauthorized, msgNoToken
	case errors.Is(err, core.ErrAuthInvalid):
		return fasthttp.StatusUnauthorized, msgInvalidToken
	case errors.Is(err, core.ErrPermissionDenied):
		return fasthttp.StatusForbidden, msgPermissionDenied
	case errors.Is(err, core.ErrDuplicateUsername):
		return fasthttp.StatusBadRequest, msgDuplicateUser
	case errors.Is(err, core.ErrInvalidUser):
		return fasthttp.StatusBadRequest, msgInvalidUser
	case errors.Is(err, core.ErrInvalidCredentials):
		return fasthttp.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, core.ErrTooManyAttempts):
		return fasthttp.StatusTooManyRequests, msgTooManyAttempts
	case errors.Is(err, core.ErrInvalidQuery), errors.Is(err, core.ErrBadRequest):
		return fasthttp.StatusBadRequest, err.Error()
	default:
		return fasthttp.StatusInternalServerError, msgInternal
	}
}

// writeJSON encodes v as the response body
func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"` + msgInternal + `"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeErrorMessage(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, map[string]string{"error": message})
}
