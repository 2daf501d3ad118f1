package ratelimit

import "net/http"

// Wrap devolve um handler com a mesma forma de next.
// Erro de hook é repassado como panic(*domain.HookError) para o recovery do host.
func (l *Limiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.ServeNext(w, r, next); err != nil {
			panic(err)
		}
	})
}

func (l *Limiter) WrapFunc(next http.HandlerFunc) http.HandlerFunc {
	return l.Wrap(next).ServeHTTP
}

// Middleware devolve o Limiter no formato func(http.Handler) http.Handler (chi, alice, etc).
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return l.Wrap
}

// Wrap é o atalho para um handler único: valida opts e embrulha next.
func Wrap(next http.Handler, opts Options) (http.Handler, error) {
	l, err := New(opts)
	if err != nil {
		return nil, err
	}
	return l.Wrap(next), nil
}
