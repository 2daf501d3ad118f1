// Package domain define contratos e tipos de domínio do rate limit por janela fixa.
//
// Este pacote não depende de net/http nem de implementações concretas (Redis, memória).
// A intenção é permitir testes de unidade puros e desacoplar a regra de decisão
// dos detalhes de infraestrutura.
package domain
