package songusecase

// Preset is a suggested mixdown of the four separated stems. The list
// is static and the same for every user.
type Preset struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Volumes     Volumes `json:"volumes"`
}

type Volumes struct {
	Vocals float64 `json:"vocals"`
	Drums  float64 `json:"drums"`
	Bass   float64 `json:"bass"`
	Other  float64 `json:"other"`
}

var mixingPresets = []Preset{
	{
		ID:          "original",
		Name:        "Original",
		Description: "All stems at full volume, as the song was recorded",
		Volumes:     Volumes{Vocals: 1.0, Drums: 1.0, Bass: 1.0, Other: 1.0},
	},
	{
		ID:          "karaoke",
		Name:        "Karaoke",
		Description: "Vocals removed, instruments untouched",
		Volumes:     Volumes{Vocals: 0.0, Drums: 1.0, Bass: 1.0, Other: 1.0},
	},
	{
		ID:          "acapella",
		Name:        "Acapella",
		Description: "Vocals only",
		Volumes:     Volumes{Vocals: 1.0, Drums: 0.0, Bass: 0.0, Other: 0.0},
	},
	{
		ID:          "drumless",
		Name:        "Drumless",
		Description: "Drums removed for practicing along",
		Volumes:     Volumes{Vocals: 1.0, Drums: 0.0, Bass: 1.0, Other: 1.0},
	},
	{
		ID:          "bassless",
		Name:        "Bassless",
		Description: "Bass removed for practicing along",
		Volumes:     Volumes{Vocals: 1.0, Drums: 1.0, Bass: 0.0, Other: 1.0},
	},
}

func (u Usecase) Presets() []Preset {
	return mixingPresets
}
