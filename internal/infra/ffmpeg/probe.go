package ffmpeg

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/framelens/framelens-engine/internal/domain/entity"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Tags         struct {
		Rotate string `json:"rotate"`
	} `json:"tags"`
	SideDataList []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

// probe runs ffprobe and derives immutable container metadata. Rotation is
// read from stream tags or display-matrix side data and normalized to
// {0,90,180,270}; width/height are reported in upright display orientation.
func probe(ctx context.Context, ffprobePath, path string, size int64, modTime time.Time) (entity.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return entity.VideoMetadata{}, entity.WrapError(entity.KindUnreadable, err,
			"ffprobe failed for %s", path)
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return entity.VideoMetadata{}, entity.WrapError(entity.KindUnreadable, err,
			"parse ffprobe output for %s", path)
	}

	var video *probeStream
	var audio *probeStream
	for i := range po.Streams {
		s := &po.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}
	if video == nil {
		return entity.VideoMetadata{}, entity.NewError(entity.KindUnsupportedCodec,
			"no decodable video stream in %s", path)
	}

	fps := parseRate(video.AvgFrameRate)
	if fps <= 0 {
		fps = parseRate(video.RFrameRate)
	}
	if fps <= 0 {
		fps = 30.0
	}

	duration, _ := strconv.ParseFloat(po.Format.Duration, 64)
	totalFrames, _ := strconv.Atoi(video.NBFrames)
	if totalFrames <= 0 && duration > 0 {
		totalFrames = int(math.Round(duration * fps))
	}
	if duration <= 0 && totalFrames > 0 {
		duration = float64(totalFrames) / fps
	}

	rotation := detectRotation(video)
	width, height := video.Width, video.Height
	if rotation == 90 || rotation == 270 {
		width, height = height, width
	}

	md := entity.VideoMetadata{
		DurationSeconds: duration,
		FPS:             fps,
		Width:           width,
		Height:          height,
		TotalFrames:     totalFrames,
		Codec:           strings.ToLower(video.CodecName),
		RotationDegrees: rotation,
		FileSizeBytes:   size,
		Modified:        modTime.Format("2006-01-02T15:04:05"),
	}
	if audio != nil {
		md.HasAudio = true
		md.AudioCodec = strings.ToLower(audio.CodecName)
	}
	return md, nil
}

// parseRate parses ffprobe "num/den" rational frame rates.
func parseRate(r string) float64 {
	if r == "" || r == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(r, "/")
	if !ok {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func detectRotation(s *probeStream) int {
	if s.Tags.Rotate != "" {
		if deg, err := strconv.Atoi(s.Tags.Rotate); err == nil {
			return normalizeRotation(deg)
		}
	}
	for _, sd := range s.SideDataList {
		if strings.EqualFold(sd.SideDataType, "Display Matrix") {
			// Display-matrix rotation is counterclockwise-positive.
			return normalizeRotation(-int(math.Round(sd.Rotation)))
		}
	}
	return 0
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	switch deg {
	case 90, 180, 270:
		return deg
	default:
		return 0
	}
}
