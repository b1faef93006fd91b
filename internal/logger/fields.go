package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldCandidate is the structured log field key for the resume id.
	FieldCandidate = "candidate_id"
	// FieldKeyword is the structured log field key for the search keyword.
	FieldKeyword = "keyword"
	// FieldLink is the structured log field key for the resume URL.
	FieldLink = "link"
	// FieldSink names the notifier or recorder handling a record.
	FieldSink = "sink"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CandidateFields describes one resume being processed. Empty values are
// skipped.
func CandidateFields(id, keyword, link string) []zap.Field {
	return StringFields(
		StringField{Key: FieldCandidate, Value: id},
		StringField{Key: FieldKeyword, Value: keyword},
		StringField{Key: FieldLink, Value: link},
	)
}

// WithCandidate attaches CandidateFields to logger.
func WithCandidate(logger *zap.Logger, id, keyword, link string) *zap.Logger {
	return WithFields(logger, CandidateFields(id, keyword, link)...)
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
