package encoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedCodec is returned for codecs outside the encoder table. It is
// raised during planning, before any external process could be spawned.
var ErrUnsupportedCodec = errors.New("unsupported codec")

// accelMode selects between the software and hardware (NVENC/CUDA) encode
// paths.
type accelMode int

const (
	accelSoftware accelMode = iota
	accelHardware
)

// encoderKey indexes the encoder table by codec and acceleration mode.
// Keeping selection as data makes the gaps visible: vp9 simply has no
// hardware entry.
type encoderKey struct {
	codec string
	mode  accelMode
}

var encoderTable = map[encoderKey]string{
	{"h264", accelSoftware}: "libx264",
	{"h264", accelHardware}: "h264_nvenc",
	{"hevc", accelSoftware}: "libx265",
	{"hevc", accelHardware}: "hevc_nvenc",
	{"av1", accelSoftware}:  "libaom-av1",
	{"av1", accelHardware}:  "av1_nvenc",
	{"vp9", accelSoftware}:  "libvpx-vp9",
}

// Job is the request-scoped input to the planner.
type Job struct {
	InputPath  string
	Codec      string
	Resolution int // target rung height, e.g. 720
	UseGPU     bool
}

// Output names one encoded artifact a plan will produce.
type Output struct {
	Resolution int
	Path       string
}

// Plan is an ordered external-process argument vector plus the outputs it
// will produce. Args never pass through a shell, so no quoting applies.
type Plan struct {
	Args     []string
	Encoder  string
	Hardware bool
	Outputs  []Output
}

// selectEncoder resolves a codec name and GPU preference against the encoder
// table. A GPU request for a codec with no hardware entry (vp9) falls back to
// the software path entirely; the caller can observe that through the
// returned mode.
func selectEncoder(codec string, useGPU bool) (string, accelMode, error) {
	name := strings.ToLower(codec)
	if name == "h265" {
		name = "hevc"
	}

	if useGPU {
		if enc, ok := encoderTable[encoderKey{name, accelHardware}]; ok {
			return enc, accelHardware, nil
		}
	}
	if enc, ok := encoderTable[encoderKey{name, accelSoftware}]; ok {
		return enc, accelSoftware, nil
	}

	return "", accelSoftware, fmt.Errorf("%w: %q", ErrUnsupportedCodec, codec)
}

// scaleFilter formats the scale-filter token for one rung. Width is computed
// by the encoder to preserve aspect ratio (-2 keeps it divisible by two).
func scaleFilter(mode accelMode, height int) string {
	if mode == accelHardware {
		return fmt.Sprintf("scale_cuda=-2:%d", height)
	}
	return fmt.Sprintf("scale=-2:%d", height)
}

// videoBitrate returns the fixed per-rung video bitrate.
func videoBitrate(height int) string {
	switch height {
	case 1080:
		return "6M"
	case 720:
		return "3M"
	case 480:
		return "2M"
	case 360:
		return "1M"
	default:
		return "0.6M"
	}
}

const (
	audioBitrate    = "128k"
	audioBitrateLow = "96k" // lowest rung of a ladder
)

func preset(mode accelMode, ladder bool) string {
	if mode == accelHardware {
		if ladder {
			return "hq"
		}
		return "p5"
	}
	return "veryfast"
}

func hardwareInputArgs() []string {
	return []string{"-hwaccel", "cuda", "-hwaccel_output_format", "cuda"}
}

// BuildSingle plans a one-rung encode: one decode input, one scale filter,
// one encoded output at outputPath.
func BuildSingle(job Job, outputPath string) (*Plan, error) {
	enc, mode, err := selectEncoder(job.Codec, job.UseGPU)
	if err != nil {
		return nil, err
	}

	args := []string{"-y", "-hide_banner"}
	if mode == accelHardware {
		args = append(args, hardwareInputArgs()...)
	}

	args = append(args,
		"-i", job.InputPath,
		"-vf", scaleFilter(mode, job.Resolution),
		"-c:v", enc,
		"-preset", preset(mode, false),
		"-b:v", videoBitrate(job.Resolution),
		"-c:a", "aac",
		"-b:a", audioBitrate,
		outputPath,
	)

	return &Plan{
		Args:     args,
		Encoder:  enc,
		Hardware: mode == accelHardware,
		Outputs:  []Output{{Resolution: job.Resolution, Path: outputPath}},
	}, nil
}

// BuildLadder plans a multi-rung encode as a single invocation: one decode
// stage, an N-way split, N scale branches and N encoded outputs, so the
// decode cost is paid once for the whole ladder. Rungs are the contiguous
// descending suffix of the canonical ladder starting at job.Resolution.
//
// Output paths derive from baseOutput with the rung height injected before
// the extension: encoded.mp4 becomes encoded_720p.mp4 and so on.
func BuildLadder(job Job, baseOutput string) (*Plan, error) {
	enc, mode, err := selectEncoder(job.Codec, job.UseGPU)
	if err != nil {
		return nil, err
	}

	rungs := Ladder(job.Resolution)

	args := []string{"-y", "-hide_banner"}
	if mode == accelHardware {
		args = append(args, hardwareInputArgs()...)
	}
	args = append(args, "-i", job.InputPath)

	var filter strings.Builder
	fmt.Fprintf(&filter, "[0:v]split=%d", len(rungs))
	for i := range rungs {
		fmt.Fprintf(&filter, "[v%d]", i+1)
	}
	for i, height := range rungs {
		fmt.Fprintf(&filter, ";[v%d]%s[v%do]", i+1, scaleFilter(mode, height), i+1)
	}
	args = append(args, "-filter_complex", filter.String())

	outputs := make([]Output, 0, len(rungs))
	for i, height := range rungs {
		out := rungOutputPath(baseOutput, height)

		audio := audioBitrate
		if i == len(rungs)-1 {
			audio = audioBitrateLow
		}

		args = append(args,
			"-map", fmt.Sprintf("[v%do]", i+1),
			"-map", "0:a?",
			"-c:v", enc,
			"-preset", preset(mode, true),
			"-b:v", videoBitrate(height),
			"-c:a", "aac",
			"-b:a", audio,
			out,
		)
		outputs = append(outputs, Output{Resolution: height, Path: out})
	}

	return &Plan{
		Args:     args,
		Encoder:  enc,
		Hardware: mode == accelHardware,
		Outputs:  outputs,
	}, nil
}

// rungOutputPath embeds the rung height into an output filename.
func rungOutputPath(baseOutput string, height int) string {
	base := strings.TrimSuffix(baseOutput, ".mp4")
	return fmt.Sprintf("%s_%dp.mp4", base, height)
}

// ParseResolution accepts "720p", "720" and similar forms and returns the
// rung height.
func ParseResolution(s string) (int, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p")
	height, err := strconv.Atoi(trimmed)
	if err != nil || height <= 0 {
		return 0, fmt.Errorf("invalid resolution %q", s)
	}
	return height, nil
}


