package ratelimit

import "time"

// VideoAnalysis caps AI analysis runs.
var VideoAnalysis = Config{
	MaxRequests: 5,
	Window:      15 * time.Minute,
	StorageKey:  "reelscript_video_analysis_limit",
}

// SaveScript caps how often results can be saved.
var SaveScript = Config{
	MaxRequests: 10,
	Window:      5 * time.Minute,
	StorageKey:  "reelscript_save_script_limit",
}
