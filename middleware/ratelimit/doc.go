// Package ratelimit fornece o decorator HTTP (net/http) de rate limit por janela fixa.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (incremento + comparação estrita, bulkhead do store) sem net/http
//   - infra: implementações concretas (Redis com script Lua, memória, semáforo, métricas)
//   - ratelimit (este pacote): política, derivação de chave, provedores de regra, hooks e Wrap
//   - ginadapter: tradução fina do mesmo pipeline para gin
//
// Fluxo por requisição (exatamente um estado terminal):
//
//  1. Skip: se configurado, deriva a chave preliminar e avalia o predicado; true => Pass sem tocar o store
//  2. Resolve os limites (estáticos ou via Rules, a cada requisição)
//  3. Deriva a chave (a menos que a regra traga uma chave explícita)
//  4. Incremento atômico no store; count > MaxCount => Block
//  5. Pass: OnPass ou o handler embrulhado; Block: OnBlock ou 429 JSON; Error: OnError ou 500 JSON
//
// Falha do store é closed-fail por padrão (500). FailOpen=true troca para Pass degradado,
// e essa escolha precisa ser explícita na configuração.
//
// Uso:
//
//	lim, err := ratelimit.New(ratelimit.Options{
//	    Store:    infra.NewRedisCounterStore(rdb),
//	    Window:   time.Second,
//	    MaxCount: 2,
//	})
//	if err != nil { ... }
//	mux.Handle("/api/hello", lim.Wrap(helloHandler))
package ratelimit
