// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisCounterStore: contador por janela fixa em Redis (INCR + PEXPIRE atômicos via Lua)
//   - MemoryCounterStore: mesma semântica em memória, para testes e desenvolvimento
//   - ChanPool: semáforo simples para limitar round trips simultâneos ao store
//   - MemoryRecorder / PromRecorder: contadores das decisões (pass/block/error)
package infra
