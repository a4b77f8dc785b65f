// Package assets embeds the static files the reminder channels need.
package assets

import "embed"

//go:embed ding.wav
var FS embed.FS

// DingPath is the reminder sound asset path used in schedule messages.
const DingPath = "/ding.wav"

// Ding returns the embedded reminder chime.
func Ding() []byte {
	b, err := FS.ReadFile("ding.wav")
	if err != nil {
		// The file is embedded at compile time; this cannot fail at runtime.
		panic(err)
	}
	return b
}
