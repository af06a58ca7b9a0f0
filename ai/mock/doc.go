// Package mock provides test doubles for the ai interfaces.
//
//	provider := mock.NewMockProvider()
//	provider.GetMockGenerator().Responses["technical skills"] = `["Go", "SQL"]`
//
// MockEmbedder returns deterministic unit vectors derived from an FNV hash
// of the text, so identical text always embeds identically. MockGenerator
// answers from GenerateFunc, then Responses matched by prompt substring,
// then Default.
package mock
