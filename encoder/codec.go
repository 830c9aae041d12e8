package encoder

import (
	"fmt"
	"strconv"
	"strings"
)

// Profile is an encoder configuration derived from a codec identifier such
// as "avc1.420034".
type Profile struct {
	Codec   string
	Encoder string // ffmpeg encoder name
	Profile string // ffmpeg -profile:v value, empty for the encoder default
	Level   string // ffmpeg -level value, empty for the encoder default
}

var avcProfiles = map[int64]string{
	0x42: "baseline",
	0x4d: "main",
	0x64: "high",
	0x6e: "high10",
	0x7a: "high422",
	0xf4: "high444",
}

// ParseCodec understands RFC 6381 identifiers for H.264 ("avc1.PPCCLL",
// "avc3.PPCCLL") and HEVC ("hvc1.*", "hev1.*").
func ParseCodec(codec string) (Profile, error) {
	family, params, _ := strings.Cut(codec, ".")
	switch strings.ToLower(family) {
	case "avc1", "avc3":
		p := Profile{Codec: codec, Encoder: "libx264"}
		if params == "" {
			return p, nil
		}
		if len(params) != 6 {
			return Profile{}, fmt.Errorf("invalid avc codec parameters %q: want 6 hex digits", params)
		}
		profileIdc, err := strconv.ParseInt(params[0:2], 16, 64)
		if err != nil {
			return Profile{}, fmt.Errorf("invalid avc profile in %q: %w", codec, err)
		}
		levelIdc, err := strconv.ParseInt(params[4:6], 16, 64)
		if err != nil {
			return Profile{}, fmt.Errorf("invalid avc level in %q: %w", codec, err)
		}
		name, ok := avcProfiles[profileIdc]
		if !ok {
			return Profile{}, fmt.Errorf("unsupported avc profile 0x%02x in %q", profileIdc, codec)
		}
		p.Profile = name
		if levelIdc > 0 {
			p.Level = fmt.Sprintf("%d.%d", levelIdc/10, levelIdc%10)
		}
		return p, nil
	case "hvc1", "hev1":
		return Profile{Codec: codec, Encoder: "libx265", Profile: "main"}, nil
	default:
		return Profile{}, fmt.Errorf("unsupported codec %q", codec)
	}
}
