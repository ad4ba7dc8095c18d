package lang

// Entry describes one supported language.
type Entry struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	STTLocale   string `json:"stt_locale"`
	TTSVoice    string `json:"tts_voice"`
}

const (
	DefaultSource = "en"
	DefaultTarget = "hi"
)

var order = []string{"en", "hi", "ja", "ko", "zh"}

var entries = map[string]Entry{
	"en": {Code: "en", DisplayName: "English", STTLocale: "en-US", TTSVoice: "en-US-AriaNeural"},
	"hi": {Code: "hi", DisplayName: "Hindi", STTLocale: "hi-IN", TTSVoice: "hi-IN-SwaraNeural"},
	"ja": {Code: "ja", DisplayName: "Japanese", STTLocale: "ja-JP", TTSVoice: "ja-JP-NanamiNeural"},
	"ko": {Code: "ko", DisplayName: "Korean", STTLocale: "ko-KR", TTSVoice: "ko-KR-SunHiNeural"},
	"zh": {Code: "zh", DisplayName: "Chinese", STTLocale: "zh-CN", TTSVoice: "zh-CN-XiaoxiaoNeural"},
}

// Resolve returns the entry for code, or the English entry when the code is unknown.
func Resolve(code string) Entry {
	if e, ok := entries[code]; ok {
		return e
	}
	return entries[DefaultSource]
}

func Supported(code string) bool {
	_, ok := entries[code]
	return ok
}

// Codes lists the supported codes in display order.
func Codes() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

func All() []Entry {
	out := make([]Entry, 0, len(order))
	for _, c := range order {
		out = append(out, entries[c])
	}
	return out
}
