package riot

// QueueSolo is the standard solo-ranked queue every ranked surface keys on.
const QueueSolo = "RANKED_SOLO_5x5"

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type SummonerProfile struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int64  `json:"summonerLevel"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	SummonerID   string `json:"summonerId"`
	PUUID        string `json:"puuid"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	HotStreak    bool   `json:"hotStreak"`
	Veteran      bool   `json:"veteran"`
	FreshBlood   bool   `json:"freshBlood"`
	Inactive     bool   `json:"inactive"`
}

type ChampionMastery struct {
	ChampionID     int   `json:"championId"`
	ChampionLevel  int   `json:"championLevel"`
	ChampionPoints int   `json:"championPoints"`
	ChestGranted   bool  `json:"chestGranted"`
	LastPlayTime   int64 `json:"lastPlayTime"`
}

type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameMode     string        `json:"gameMode"`
	GameDuration int64         `json:"gameDuration"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	PUUID        string `json:"puuid"`
	ChampionID   int    `json:"championId"`
	ChampionName string `json:"championName"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	Win          bool   `json:"win"`
}

// SoloEntry returns the solo-queue entry from a player's league entries,
// or nil when the player has no solo ranking.
func SoloEntry(entries []LeagueEntry) *LeagueEntry {
	for i := range entries {
		if entries[i].QueueType == QueueSolo {
			return &entries[i]
		}
	}
	return nil
}
