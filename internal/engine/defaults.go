package engine

// Default encoder options per target format, chosen for transparent
// quality at moderate VBR bitrates. Entries can be overridden through
// the config file's encoder_defaults table or replaced wholesale with
// the --encoder-options flag.
var defaultEncoderOptions = map[string]string{
	// VBR ~192kbps
	"mp3": "-codec:a libmp3lame -q:a 2",
	// VBR ~160kbps
	"ogg": "-codec:a libvorbis -q:a 5",
	// VBR ~192kbps
	"aac": "-codec:a libfdk_aac -vbr 5",
	"m4a": "-codec:a libfdk_aac -vbr 5",
	"mp4": "-codec:a libfdk_aac -vbr 5",
	// ~160kbps
	"opus": "-codec:a libopus -b:a 160k",
}

// DefaultEncoderOptions returns the built-in encoder flags for a
// target format, or "" when the format has no entry (ffmpeg's own
// defaults apply).
func DefaultEncoderOptions(format string) string {
	return defaultEncoderOptions[format]
}
