package cdn

// Champion is a full catalog entry as served by champion/{key}.json.
// The key is the stable primary identifier ("266", "Aatrox" pairs invert
// between endpoints; here Key is the numeric string and ID the mnemonic).
type Champion struct {
	ID       string   `json:"id"`
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Lore     string   `json:"lore"`
	Image    Image    `json:"image"`
	Spells   []Spell  `json:"spells"`
	Passive  Spell    `json:"passive"`
	AllyTips []string `json:"allytips"`
	EnemyTips []string `json:"enemytips"`
	Tags     []string `json:"tags"`
	Skins    []Skin   `json:"skins"`
}

type Image struct {
	Full   string `json:"full"`
	Sprite string `json:"sprite"`
}

type Spell struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       Image     `json:"image"`
	Cooldown    []float64 `json:"cooldown"`
	Cost        []int     `json:"cost"`
}

type Skin struct {
	ID   string `json:"id"`
	Num  int    `json:"num"`
	Name string `json:"name"`
}

// ChampionList is the champion.json index: summary entries keyed by
// mnemonic id. Detail endpoints reuse the same envelope with one entry.
type ChampionList struct {
	Version string              `json:"version"`
	Data    map[string]Champion `json:"data"`
}
