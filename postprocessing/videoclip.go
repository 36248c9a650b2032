package postprocessing

import "time"

// VideoClip is a transcoded copy of a recording
type VideoClip struct {
	Path      string
	Source    string
	Codec     string
	Format    string
	Timestamp time.Time
	Duration  time.Duration
}
