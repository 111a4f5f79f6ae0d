package mediaprobe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framecast/pkg/ports"
)

// ProbeMP4File reads video track metadata from an MP4 container.
func ProbeMP4File(path string) (ports.MediaInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeMP4(f)
}

// ProbeMP4 reads video track metadata from an MP4 stream.
func ProbeMP4(r io.ReadSeeker) (ports.MediaInfo, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	moov := mp4File.Moov
	if moov == nil && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return ports.MediaInfo{}, fmt.Errorf("no moov box")
	}

	trak := videoTrack(moov)
	if trak == nil {
		return ports.MediaInfo{}, fmt.Errorf("no video track found")
	}

	info := ports.MediaInfo{}
	info.Width, info.Height = trackDimensions(trak)

	var timescale uint32 = 1000
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	var samples, totalDur uint64
	if mp4File.IsFragmented() {
		samples, totalDur, err = fragmentedSamples(mp4File, moov, trak.Tkhd.TrackID)
		if err != nil {
			return ports.MediaInfo{}, err
		}
	} else {
		var stbl *mp4.StblBox
		if trak.Mdia.Minf != nil {
			stbl = trak.Mdia.Minf.Stbl
		}
		if stbl != nil && stbl.Stsz != nil {
			samples = uint64(stbl.Stsz.SampleNumber)
		}
		if trak.Mdia.Mdhd != nil {
			totalDur = trak.Mdia.Mdhd.Duration
		}
		if totalDur == 0 && stbl != nil && stbl.Stts != nil {
			for i, n := range stbl.Stts.SampleCount {
				totalDur += uint64(n) * uint64(stbl.Stts.SampleTimeDelta[i])
			}
		}
	}

	info.FrameCount = int(samples)
	if totalDur > 0 {
		info.Duration = time.Duration(float64(totalDur) / float64(timescale) * float64(time.Second))
		info.FPS = float64(samples) * float64(timescale) / float64(totalDur)
	}

	if info.Width == 0 || info.Height == 0 {
		return info, fmt.Errorf("video track has no dimensions")
	}
	return info, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// trackDimensions prefers the sample entry and falls back to the 16.16 track header.
func trackDimensions(trak *mp4.TrakBox) (int, int) {
	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
				return int(vse.Width), int(vse.Height)
			}
		}
	}
	if trak.Tkhd != nil {
		return int(uint32(trak.Tkhd.Width) >> 16), int(uint32(trak.Tkhd.Height) >> 16)
	}
	return 0, 0
}

func fragmentedSamples(mp4File *mp4.File, moov *mp4.MoovBox, trackID uint32) (count, dur uint64, err error) {
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return 0, 0, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				count++
				dur += uint64(s.Dur)
			}
		}
	}
	return count, dur, nil
}
