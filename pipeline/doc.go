// Package pipeline runs the compatibility analysis as a fixed chain of
// stages over a typed, append-only State.
//
// Each stage owns one State key. The Orchestrator runs the stages in order,
// merges each update, and records a StageOutcome. A stage with missing
// inputs writes an empty value and is marked skipped; a stage whose
// external call fails, whose output does not parse, that panics, or that
// exceeds its timeout contributes a fixed fallback value. Run never returns
// an error.
//
// Basic usage:
//
//	caller, _ := pipeline.NewCaller(provider.Generator(), pipeline.WithWebSearch(web))
//	stages, _ := pipeline.DefaultStages(pipeline.Dependencies{
//		Index:     ix,
//		Retriever: searcher,
//		Caller:    caller,
//	})
//	o, _ := pipeline.NewOrchestrator(stages)
//	final := o.Run(ctx, pipeline.NewState(input))
//	record := final.Record()
package pipeline
