// FILE: logvault/src/internal/api/gate.go
package api

import (
	"errors"
	"fmt"
	"strings"

	"logvault/src/internal/core"
	"logvault/src/internal/metrics"

	"github.com/valyala/fasthttp"
)

const identityKey = "logvault.identity"

// Gate inspects a request before its handler runs. A non-nil error stops the pipeline
// and becomes the response.
type Gate func(ctx *fasthttp.RequestCtx) error

// Pipeline is an ordered list of gates
type Pipeline []Gate

// Run applies the gates in order, stopping at the first failure
func (p Pipeline) Run(ctx *fasthttp.RequestCtx) error {
	for _, gate := range p {
		if err := gate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TokenVerifier decodes a bearer token into an identity
type TokenVerifier interface {
	Verify(token string) (core.Identity, error)
}

// RequireBearer verifies the Authorization header and stores the caller identity on the request
func RequireBearer(tokens TokenVerifier, m *metrics.Metrics) Gate {
	return func(ctx *fasthttp.RequestCtx) error {
		header := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			m.AuthEvent("verify", "missing")
			return core.ErrAuthMissing
		}

		identity, err := tokens.Verify(token)
		if err != nil {
			m.AuthEvent("verify", "invalid")
			if !errors.Is(err, core.ErrAuthInvalid) {
				err = fmt.Errorf("%w: %w", core.ErrAuthInvalid, err)
			}
			return err
		}

		m.AuthEvent("verify", "success")
		ctx.SetUserValue(identityKey, identity)
		return nil
	}
}

// IdentityFrom returns the identity stored by RequireBearer
func IdentityFrom(ctx *fasthttp.RequestCtx) (core.Identity, bool) {
	identity, ok := ctx.UserValue(identityKey).(core.Identity)
	return identity, ok
}
