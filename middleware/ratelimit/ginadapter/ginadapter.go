// Package ginadapter expõe o mesmo pipeline do ratelimit.Limiter como gin.HandlerFunc.
package ginadapter

import (
	"io"
	"net/http"

	"ratewrap/middleware/ratelimit"

	"github.com/gin-gonic/gin"
)

// Middleware roda o Limiter antes do restante da cadeia.
//
// O "handler embrulhado" é c.Next(). Se nenhum caminho chamou next (Block, Error ou hook
// que assumiu a resposta), a cadeia é abortada. Erro de hook vai para c.Error.
// Se um hook chamar next com outro writer, a cadeia escreve através dele durante c.Next().
func Middleware(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r

			orig := c.Writer
			if w != orig {
				c.Writer = &hookWriter{ResponseWriter: orig, w: w}
				defer func() { c.Writer = orig }()
			}
			c.Next()
		})

		if err := l.ServeNext(c.Writer, c.Request, next); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !called {
			c.Abort()
		}
	}
}

// hookWriter desvia escrita e headers para o writer do hook.
// Status/Size continuam vindo do writer do gin, que o hook normalmente embrulha.
type hookWriter struct {
	gin.ResponseWriter
	w http.ResponseWriter
}

func (h *hookWriter) Header() http.Header { return h.w.Header() }

func (h *hookWriter) WriteHeader(code int) { h.w.WriteHeader(code) }

func (h *hookWriter) Write(b []byte) (int, error) { return h.w.Write(b) }

func (h *hookWriter) WriteString(s string) (int, error) { return io.WriteString(h.w, s) }
