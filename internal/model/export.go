package model

import (
	"strings"
	"time"
)

// ResultExport is the downloadable snapshot of a finished session
type ResultExport struct {
	Timestamp   string                  `json:"timestamp"`
	User        UserProfile             `json:"user"`
	Result      Recommendation          `json:"result"`
	LLMFallback *FallbackRecommendation `json:"llm_fallback"`
}

const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var fileStampReplacer = strings.NewReplacer(":", "", ".", "")

// ExportTimestamp formats t the way exports are stamped (ISO-8601, UTC, milliseconds)
func ExportTimestamp(t time.Time) string {
	return t.UTC().Format(exportTimeLayout)
}

// ExportFileName derives result_<stamp>.json with ':' and '.' stripped from the stamp
func ExportFileName(t time.Time) string {
	return "result_" + fileStampReplacer.Replace(ExportTimestamp(t)) + ".json"
}
