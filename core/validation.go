package core

import "fmt"

// ValidateChunk validates a Chunk before it is written.
//
// Validation rules:
//   - Hash must not be empty
//   - Ordinal must not be negative
//   - Text must not be empty
//   - Embedding must not be empty
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Hash == "" {
		return fmt.Errorf("%w: empty hash", ErrInvalidChunk)
	}
	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: negative ordinal %d", ErrInvalidChunk, chunk.Ordinal)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidChunk)
	}
	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: missing embedding", ErrInvalidChunk)
	}
	return nil
}

// ValidateAnalysisRecord validates a record before it is persisted.
//
// Validation rules:
//   - every score must be in [0,100]
//   - confidence, when set, must be one of high, medium, low
//
// NOT validated (assigned by the result store):
//   - ID
//   - CreatedAt
//   - Status
func ValidateAnalysisRecord(record *AnalysisRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	score := record.CompatibilityScore
	for name, v := range map[string]int{
		"overall_score":    score.Overall,
		"intent_alignment": score.IntentAlignment,
		"skill_match":      score.SkillMatch,
		"cultural_fit":     score.CulturalFit,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %w: %s=%d", ErrInvalidRecord, ErrScoreOutOfRange, name, v)
		}
	}

	switch score.Metadata.Confidence {
	case "", ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidRecord, score.Metadata.Confidence)
	}

	return nil
}
