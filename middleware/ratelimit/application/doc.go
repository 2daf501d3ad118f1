// Package application contém os casos de uso (regras de aplicação) do rate limit.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key, limits) incrementa o contador e retorna uma Decision
// (pass/block/error + TTL restante).
package application
