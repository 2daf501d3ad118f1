package ratelimit

import (
	"net/http"
	"strings"

	"ratewrap/middleware/ratelimit/domain"
)

// TieredRules escolhe os limites pelo valor de um header (ex: plano do cliente autenticado).
// Valores desconhecidos ou ausentes usam fallback. A comparação ignora caixa.
func TieredRules(header string, tiers map[string]domain.Limits, fallback domain.Limits) RuleFunc {
	byPlan := make(map[string]domain.Limits, len(tiers))
	for plan, limits := range tiers {
		byPlan[strings.ToLower(strings.TrimSpace(plan))] = limits
	}

	return func(r *http.Request) (domain.Rule, error) {
		plan := strings.ToLower(strings.TrimSpace(r.Header.Get(header)))
		if plan != "" {
			if limits, ok := byPlan[plan]; ok {
				return domain.Rule{Limits: limits}, nil
			}
		}
		return domain.Rule{Limits: fallback}, nil
	}
}

// Skip Functions

// SkipPaths ignora o rate limit para os paths exatos informados.
func SkipPaths(paths ...string) SkipFunc {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request, _ string) bool {
		_, ok := set[requestPath(r)]
		return ok
	}
}

// SkipMethods ignora o rate limit para os métodos informados (ex: OPTIONS).
func SkipMethods(methods ...string) SkipFunc {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = struct{}{}
	}
	return func(r *http.Request, _ string) bool {
		_, ok := set[r.Method]
		return ok
	}
}

// SkipIf combina predicados com OR.
func SkipIf(funcs ...SkipFunc) SkipFunc {
	return func(r *http.Request, key string) bool {
		for _, fn := range funcs {
			if fn(r, key) {
				return true
			}
		}
		return false
	}
}
