package watcher

import "github.com/ritzau/binview/pkg/source"

// ChangeAnalysis says which modules' sessions need their payload replaced
type ChangeAnalysis struct {
	Reload       []string // modules whose result file was written
	Cleared      []string // modules whose result file is gone
	ChangedFiles []string
}

// AnalyzeChanges maps a change batch onto modules
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	for _, path := range event.Paths {
		module, ok := source.ModuleOf(path)
		if !ok {
			continue
		}
		switch event.Type {
		case ChangeTypeWritten:
			analysis.Reload = append(analysis.Reload, module)
		case ChangeTypeRemoved:
			// Sessions stay open and show that no result is available
			analysis.Cleared = append(analysis.Cleared, module)
		}
	}

	return analysis
}
