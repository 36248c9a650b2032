// Package inspect reads container metadata from finished recordings.
package inspect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

var ErrNoVideoTrack = errors.New("no video track found")

// ContainerInfo describes the first video track of an MP4 file.
type ContainerInfo struct {
	Codec       string // sample entry type, e.g. "avc1" or "mp4v"
	Width       int
	Height      int
	Timescale   uint32
	SampleCount int
	Duration    time.Duration
	Fragmented  bool
}

// FrameRate is the average rate over the whole track, or 0 if the track is empty.
func (c ContainerInfo) FrameRate() float64 {
	if c.Duration <= 0 {
		return 0
	}
	return float64(c.SampleCount) / c.Duration.Seconds()
}

// ProbeFile opens path and reads its video track metadata.
func ProbeFile(path string) (*ContainerInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

func Probe(reader io.ReadSeeker) (*ContainerInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeProgressive(mp4File *mp4.File) (*ContainerInfo, error) {
	if mp4File.Moov == nil {
		return nil, ErrNoVideoTrack
	}

	trak := findVideoTrack(mp4File.Moov.Traks)
	if trak == nil {
		return nil, ErrNoVideoTrack
	}

	info := trackInfo(trak)

	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		info.SampleCount = int(stbl.Stsz.SampleNumber)
	}

	var ticks uint64
	if stbl.Stts != nil {
		for i, count := range stbl.Stts.SampleCount {
			ticks += uint64(count) * uint64(stbl.Stts.SampleTimeDelta[i])
		}
	}
	info.Duration = ticksToDuration(ticks, info.Timescale)

	return info, nil
}

func probeFragmented(mp4File *mp4.File) (*ContainerInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return nil, ErrNoVideoTrack
	}

	trak := findVideoTrack(mp4File.Init.Moov.Traks)
	if trak == nil {
		return nil, ErrNoVideoTrack
	}

	info := trackInfo(trak)
	info.Fragmented = true
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var ticks uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			if !hasTrack(frag.Moof, trackID) {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, fmt.Errorf("read fragment samples: %w", err)
			}
			for _, s := range samples {
				ticks += uint64(s.Dur)
			}
			info.SampleCount += len(samples)
		}
	}
	info.Duration = ticksToDuration(ticks, info.Timescale)

	return info, nil
}

func hasTrack(moof *mp4.MoofBox, trackID uint32) bool {
	for _, traf := range moof.Trafs {
		if traf.Tfhd != nil && traf.Tfhd.TrackID == trackID {
			return true
		}
	}
	return false
}

func findVideoTrack(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			continue
		}
		return trak
	}
	return nil
}

func trackInfo(trak *mp4.TrakBox) *ContainerInfo {
	info := &ContainerInfo{}

	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}
	if trak.Mdia.Mdhd != nil {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}

	if stsd := trak.Mdia.Minf.Stbl.Stsd; stsd != nil {
		for _, child := range stsd.Children {
			info.Codec = child.Type()
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && info.Width == 0 {
				info.Width = int(vse.Width)
				info.Height = int(vse.Height)
			}
			break
		}
	}

	return info
}

func ticksToDuration(ticks uint64, timescale uint32) time.Duration {
	if timescale == 0 {
		return 0
	}
	ts := uint64(timescale)
	whole := ticks / ts
	rem := ticks % ts
	return time.Duration(whole)*time.Second + time.Duration(rem*uint64(time.Second)/ts)
}
