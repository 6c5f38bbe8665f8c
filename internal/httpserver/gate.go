package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/logging"
	"authgate/backend/internal/metrics"
	authusecase "authgate/backend/internal/usecase/auth"
)

// Policy selects how the gate treats requests without a usable token.
type Policy string

const (
	// PolicyRequired rejects requests that do not resolve to a principal.
	PolicyRequired Policy = "required"
	// PolicyOptional lets anonymous requests and bad tokens through without a principal.
	PolicyOptional Policy = "optional"
)

// PrincipalResolver resolves the Authorization header of a request.
type PrincipalResolver interface {
	Resolve(ctx context.Context, authorization string) (authusecase.Resolution, error)
}

type decision struct {
	proceed   bool
	principal *domain.Principal
	status    int
	err       *domain.Error
}

func (d decision) outcome() string {
	switch {
	case d.proceed && d.principal != nil:
		return "authenticated"
	case d.proceed:
		return "anonymous"
	default:
		return strings.ToLower(string(d.err.Kind))
	}
}

// decide maps a resolution onto the policy. Both policies reject a valid
// token whose account no longer exists; only Optional forgives a token that
// failed verification.
func decide(policy Policy, res authusecase.Resolution, err error) decision {
	if err != nil {
		authErr := domain.AsError(err)
		if policy == PolicyOptional &&
			(authErr.Kind == domain.KindTokenExpired || authErr.Kind == domain.KindTokenInvalid) {
			return decision{proceed: true}
		}
		return decision{status: statusFor(authErr.Kind), err: authErr}
	}

	if !res.TokenPresent {
		if policy == PolicyOptional {
			return decision{proceed: true}
		}
		return decision{status: http.StatusUnauthorized, err: domain.ErrTokenMissing}
	}
	if res.Principal == nil {
		return decision{status: http.StatusUnauthorized, err: domain.ErrUserNotFound}
	}
	return decision{proceed: true, principal: res.Principal}
}

// Gate wraps handlers with an authentication policy.
type Gate struct {
	resolver PrincipalResolver
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewGate constructs a gate. A nil logger discards; a nil collector records nothing.
func NewGate(resolver PrincipalResolver, logger *slog.Logger, collector *metrics.Collector) *Gate {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gate{resolver: resolver, logger: logger, metrics: collector}
}

// Required admits only requests resolving to an existing account.
func (g *Gate) Required(next http.Handler) http.Handler {
	return g.guard(PolicyRequired, next)
}

// Optional admits every request, attaching the principal when one resolves.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return g.guard(PolicyOptional, next)
}

func (g *Gate) guard(policy Policy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.evaluate(r, policy)
		g.metrics.GateDecision(string(policy), d.outcome())

		if !d.proceed {
			if d.status == http.StatusInternalServerError {
				logging.LogError(r.Context(), g.logger, "authentication failed", d.err)
				writeError(w, d.status, msgAuthFailed)
				return
			}
			writeError(w, d.status, d.err.Message)
			return
		}

		if d.principal != nil {
			r = r.WithContext(WithPrincipal(r.Context(), d.principal))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) evaluate(r *http.Request, policy Policy) (d decision) {
	defer func() {
		if rec := recover(); rec != nil {
			d = decision{
				status: http.StatusInternalServerError,
				err:    domain.Internal(fmt.Errorf("panic during authentication: %v", rec)),
			}
		}
	}()

	res, err := g.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
	return decide(policy, res, err)
}
