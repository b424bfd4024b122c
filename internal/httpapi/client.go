package httpapi

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type clientIDKey struct{}

// ClientID returns the client id bound to the request context, or "".
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// identifyClient binds the request to the client named by the identity
// cookie, issuing a fresh id when the cookie is missing or malformed.
func (s *Server) identifyClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Cookie.Name); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Cookie.Name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(s.cfg.Cookie.MaxAge.Seconds()),
				Secure:   s.cfg.Cookie.Secure,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), clientIDKey{}, id)
		ctx = zctx.With(ctx, zap.String("client_id", id))
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("storefront.client_id", id))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) services(r *http.Request) *clientServices {
	return s.servicesFor(ClientID(r.Context()))
}
