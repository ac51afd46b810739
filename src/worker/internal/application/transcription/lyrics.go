package transcription

import "strings"

// MinTextLength is the threshold below which a transcription is
// treated as an instrumental track. Whisper hallucinates short
// phrases on pure instrumentals, so a handful of characters is noise,
// not lyrics.
const MinTextLength = 10

// Lyrics is the document written to the output bucket as lyrics.json.
type Lyrics struct {
	Language     *string   `json:"language"`
	Instrumental bool      `json:"instrumental"`
	Segments     []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func InstrumentalLyrics() Lyrics {
	return Lyrics{
		Language:     nil,
		Instrumental: true,
		Segments:     []Segment{},
	}
}

// BuildLyrics applies the instrumental rule to a raw transcription:
// if the joined segment text doesn't reach MinTextLength, the track
// has no lyrics and the segments are dropped.
func BuildLyrics(language string, segments []Segment) Lyrics {
	texts := []string{}
	for _, segment := range segments {
		texts = append(texts, segment.Text)
	}

	totalText := strings.TrimSpace(strings.Join(texts, " "))
	if len(totalText) < MinTextLength {
		return InstrumentalLyrics()
	}

	return Lyrics{
		Language:     &language,
		Instrumental: false,
		Segments:     segments,
	}
}
