package statblock

import (
	"github.com/dgallion1/bestiary/internal/grammar"
	"github.com/dgallion1/bestiary/internal/lookup"
)

// Record is the structured form of one statblock. Optional sections are
// pointers or omitempty collections; placeholders meaning "no value"
// serialize as null.
type Record struct {
	Identity        string            `json:"url"`
	Title1          string            `json:"title1"`
	Legacy          bool              `json:"is_3.5,omitempty"`
	DescShort       string            `json:"desc_short,omitempty"`
	Title2          string            `json:"title2"`
	CR              *float64          `json:"CR"`
	MR              *int              `json:"MR,omitempty"`
	Footnotes       map[string]string `json:"asterisk,omitempty"`
	SecondStatblock bool              `json:"second_statblock,omitempty"`

	Sources   []Source           `json:"sources"`
	XP        *grammar.IntOrText `json:"XP,omitempty"`
	RaceClass *RaceClass         `json:"race_class,omitempty"`
	Alignment Alignment          `json:"alignment"`
	Size      string             `json:"size"`
	Type      string             `json:"type"`
	Subtypes  []string           `json:"subtypes,omitempty"`

	Initiative Initiative `json:"initiative"`
	Senses     *Senses    `json:"senses,omitempty"`
	Auras      []Aura     `json:"auras,omitempty"`

	AC                 AC                 `json:"AC"`
	HP                 HP                 `json:"HP"`
	Saves              Saves              `json:"saves"`
	DefensiveAbilities []string           `json:"defensive_abilities,omitempty"`
	DR                 []DR               `json:"DR,omitempty"`
	Immunities         []string           `json:"immunities,omitempty"`
	Resistances        *Resistances       `json:"resistances,omitempty"`
	SR                 *grammar.IntOrText `json:"SR,omitempty"`
	Weaknesses         []string           `json:"weaknesses,omitempty"`

	Speeds                Speeds              `json:"speeds"`
	Attacks               Attacks             `json:"attacks"`
	Space                 *float64            `json:"space,omitempty"`
	Reach                 *float64            `json:"reach,omitempty"`
	ReachOther            string              `json:"reach_other,omitempty"`
	Spells                *SpellBlock         `json:"spells,omitempty"`
	SpellLikeAbilities    *SpellBlock         `json:"spell_like_abilities,omitempty"`
	KineticistWildTalents map[string][]string `json:"kineticist_wild_talents,omitempty"`
	PsychicMagic          *PsychicMagic       `json:"psychic_magic,omitempty"`
	Tactics               map[string]string   `json:"tactics,omitempty"`

	AbilityScores    AbilityScores       `json:"ability_scores"`
	BAB              grammar.IntOrText   `json:"BAB"`
	CMB              *grammar.IntOrText  `json:"CMB,omitempty"`
	CMBOther         string              `json:"CMB_other,omitempty"`
	CMD              *grammar.IntOrText  `json:"CMD,omitempty"`
	CMDOther         string              `json:"CMD_other,omitempty"`
	Grapple          *grammar.IntOrText  `json:"grapple_3.5,omitempty"`
	Feats            []Feat              `json:"feats,omitempty"`
	Skills           Skills              `json:"skills"`
	Languages        []string            `json:"languages,omitempty"`
	SpecialQualities []string            `json:"special_qualities,omitempty"`
	Gear             map[string][]string `json:"gear,omitempty"`
	NPCBoon          string              `json:"npc_boon,omitempty"`

	Ecology          *Ecology          `json:"ecology,omitempty"`
	SpecialAbilities map[string]string `json:"special_abilities,omitempty"`
	DescLong         string            `json:"desc_long"`

	// Diagnostics lists optional fields that could not be read and why.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

type Source struct {
	Name string `json:"name"`
	Page int    `json:"page"`
	Link string `json:"link,omitempty"`
}

type RaceClass struct {
	Raw     string       `json:"raw"`
	Prefix  []string     `json:"prefix,omitempty"`
	Race    string       `json:"race,omitempty"`
	Sources []RaceSource `json:"sources,omitempty"`
	Class   []ClassLevel `json:"class,omitempty"`
}

type RaceSource struct {
	Name string `json:"name"`
	Page int    `json:"page"`
}

type ClassLevel struct {
	Name       string `json:"name"`
	Level      int    `json:"level"`
	Deity      string `json:"deity,omitempty"`
	Archetype  string `json:"archetype,omitempty"`
	MythicPath bool   `json:"mythic_path,omitempty"`
}

type Alignment struct {
	Raw     string `json:"raw"`
	Cleaned string `json:"cleaned"`
}

type Initiative struct {
	Bonus     int            `json:"bonus"`
	Secondary *int           `json:"bonus_secondary,omitempty"`
	Other     map[string]int `json:"other,omitempty"`
	Ability   string         `json:"ability,omitempty"`
}

type Senses struct {
	Ranges     map[string]int    `json:"ranges,omitempty"`
	Qualifiers map[string]string `json:"qualifiers,omitempty"`
	Special    []string          `json:"special,omitempty"`
}

type Aura struct {
	Name     string             `json:"name"`
	Radius   *grammar.IntOrText `json:"radius,omitempty"`
	DC       *int               `json:"DC,omitempty"`
	DCType   string             `json:"DC_type,omitempty"`
	Duration string             `json:"duration,omitempty"`
	Other    []string           `json:"other,omitempty"`
}

type AC struct {
	AC              int            `json:"AC"`
	Touch           int            `json:"touch"`
	FlatFooted      int            `json:"flat_footed"`
	Components      map[string]int `json:"components,omitempty"`
	ComponentsOther []string       `json:"components_other,omitempty"`
	Other           string         `json:"other,omitempty"`
}

type HP struct {
	Total                int     `json:"total"`
	Long                 string  `json:"long"`
	Plus                 string  `json:"plus,omitempty"`
	FastHealing          *int    `json:"fast_healing,omitempty"`
	FastHealingWeakness  string  `json:"fast_healing_weakness,omitempty"`
	Regeneration         *int    `json:"regeneration,omitempty"`
	RegenerationWeakness string  `json:"regeneration_weakness,omitempty"`
	Other                string  `json:"other,omitempty"`
	BonusHP              int     `json:"bonus_HP"`
	HD                   HitDice `json:"HD"`
}

// HitDice is the apportionment of the hp parenthetical's dice.
type HitDice struct {
	Class        []lookup.ClassDice `json:"class,omitempty"`
	Racial       *lookup.Dice       `json:"racial,omitempty"`
	Num          int                `json:"num"`
	Inconsistent bool               `json:"inconsistent,omitempty"`
}

type Saves struct {
	Fort      int    `json:"fort"`
	Ref       int    `json:"ref"`
	Will      int    `json:"will"`
	FortOther string `json:"fort_other,omitempty"`
	RefOther  string `json:"ref_other,omitempty"`
	WillOther string `json:"will_other,omitempty"`
	Other     string `json:"other,omitempty"`
}

type DR struct {
	Amount    int    `json:"amount"`
	Bypass    string `json:"weakness"`
	MaxAbsorb *int   `json:"max_absorb,omitempty"`
	Other     string `json:"other,omitempty"`
}

type Resistances struct {
	Energy     map[string]int    `json:"energy,omitempty"`
	Qualifiers map[string]string `json:"qualifiers,omitempty"`
	Custom     []string          `json:"custom,omitempty"`
	Ability    string            `json:"ability,omitempty"`
}

type Speeds struct {
	Modes              map[string]int    `json:"modes"`
	Qualifiers         map[string]string `json:"qualifiers,omitempty"`
	FlyManeuverability string            `json:"fly_maneuverability,omitempty"`
	Other              []string          `json:"other,omitempty"`
	Alternate          string            `json:"other_semicolon,omitempty"`
}

// Attacks holds melee and ranged attack lines as alternative groups: each
// group is a full attack sequence, and groups are joined by "or".
type Attacks struct {
	Melee   [][]Attack `json:"melee,omitempty"`
	Ranged  [][]Attack `json:"ranged,omitempty"`
	Special []string   `json:"special,omitempty"`
}

type Attack struct {
	Text        string             `json:"text"`
	Count       *grammar.IntOrText `json:"count,omitempty"`
	Name        string             `json:"attack"`
	Bonus       []int              `json:"bonus,omitempty"`
	Touch       bool               `json:"touch,omitempty"`
	Incorporeal bool               `json:"incorporeal,omitempty"`
	Restriction string             `json:"restriction,omitempty"`
	Entries     []Damage           `json:"entries,omitempty"`
}

type Damage struct {
	Damage         string `json:"damage,omitempty"`
	Type           string `json:"type,omitempty"`
	CritRange      string `json:"crit_range,omitempty"`
	CritMultiplier *int   `json:"crit_multiplier,omitempty"`
	AppliesAgainst string `json:"applies_against,omitempty"`
	Effect         string `json:"effect,omitempty"`
	DC             *int   `json:"DC,omitempty"`
}

// SpellBlock merges every block of one kind (spells or spell-like
// abilities): one source per block, entries from all blocks in order.
type SpellBlock struct {
	Sources        []SpellSource   `json:"sources"`
	Entries        []Spell         `json:"entries"`
	Varies         bool            `json:"varies,omitempty"`
	SymbolsSpecial *SymbolsSpecial `json:"symbols_special,omitempty"`
}

type SpellSource struct {
	Name              string                    `json:"name"`
	Type              string                    `json:"type,omitempty"`
	CL                int                       `json:"CL"`
	Concentration     *int                      `json:"concentration,omitempty"`
	FailureChance     string                    `json:"failure_chance,omitempty"`
	DCAbility         string                    `json:"DC_ability_score,omitempty"`
	TouchMelee        *int                      `json:"touch_attack_melee,omitempty"`
	TouchRanged       *int                      `json:"touch_attack_ranged,omitempty"`
	Slots             map[int]grammar.IntOrText `json:"slots,omitempty"`
	SlotsRemaining    map[int]int               `json:"slots_remaining,omitempty"`
	Domains           []string                  `json:"domains,omitempty"`
	Bloodline         string                    `json:"bloodline,omitempty"`
	Inquisition       string                    `json:"inquisition,omitempty"`
	Spirit            string                    `json:"spirit,omitempty"`
	OppositionSchools []string                  `json:"opposition_schools,omitempty"`
	Patron            string                    `json:"patron,omitempty"`
	Mystery           string                    `json:"mystery,omitempty"`
	PsychicDiscipline string                    `json:"psychic_discipline,omitempty"`
	MythicRestriction string                    `json:"mythic_restriction,omitempty"`
	Implements        []Implement               `json:"occultist_implements,omitempty"`
}

type SymbolsSpecial struct {
	MaxDuration string `json:"max_duration"`
	NumSelected string `json:"num_selected"`
}

type Spell struct {
	Name           string   `json:"name"`
	Source         string   `json:"source"`
	Level          *int     `json:"level,omitempty"`
	Freq           string   `json:"freq,omitempty"`
	Metamagic      []string `json:"metamagic,omitempty"`
	Domain         bool     `json:"is_domain_spell,omitempty"`
	Spirit         bool     `json:"is_spirit_spell,omitempty"`
	Mythic         bool     `json:"is_mythic_spell,omitempty"`
	Superscripts   []string `json:"superscripts,omitempty"`
	SymbolsSpecial bool     `json:"symbols_special,omitempty"`
	DC             *int     `json:"DC,omitempty"`
	Count          *int     `json:"count,omitempty"`
	CL             *int     `json:"CL,omitempty"`
	Other          string   `json:"other,omitempty"`
	ParenText      string   `json:"paren_text,omitempty"`
	ParenText2     string   `json:"paren_text2,omitempty"`
	Summons        []Summon `json:"summons,omitempty"`
}

type Summon struct {
	Name   string             `json:"name"`
	Amount *grammar.IntOrText `json:"amount,omitempty"`
	Chance string             `json:"chance,omitempty"`
}

type Implement struct {
	School        string   `json:"school"`
	Slot          string   `json:"slot"`
	Points        int      `json:"points"`
	ResonantPower string   `json:"resonant_power"`
	FocusPowers   []string `json:"focus_powers"`
}

type PsychicMagic struct {
	Sources []SpellSource     `json:"sources"`
	PE      grammar.IntOrText `json:"PE"`
	Entries []PsychicSpell    `json:"entries"`
}

type PsychicSpell struct {
	Name         string   `json:"name"`
	Superscripts []string `json:"superscripts,omitempty"`
	PE           *int     `json:"PE,omitempty"`
	DC           *int     `json:"DC,omitempty"`
	Other        string   `json:"other,omitempty"`
}

// AbilityScores are the six scores in canonical order. A score printed as
// a placeholder is null, never zero.
type AbilityScores struct {
	STR grammar.IntOrText `json:"STR"`
	DEX grammar.IntOrText `json:"DEX"`
	CON grammar.IntOrText `json:"CON"`
	INT grammar.IntOrText `json:"INT"`
	WIS grammar.IntOrText `json:"WIS"`
	CHA grammar.IntOrText `json:"CHA"`
}

type Feat struct {
	Name         string   `json:"name"`
	Bonus        bool     `json:"is_bonus,omitempty"`
	Mythic       bool     `json:"is_mythic,omitempty"`
	Superscripts []string `json:"superscripts,omitempty"`
}

// Skill is one skill's modifiers. Value is the unconditional bonus;
// Conditional maps a circumstance to its bonus.
type Skill struct {
	Value       *int           `json:"value,omitempty"`
	Conditional map[string]int `json:"conditional,omitempty"`
	Other       string         `json:"other,omitempty"`
	Mismatch    bool           `json:"mismatch,omitempty"`
}

type Skills struct {
	Entries     map[string]*Skill `json:"entries,omitempty"`
	RacialMods  map[string]*Skill `json:"racial_mods,omitempty"`
	RacialOther string            `json:"racial_other,omitempty"`
	// Unparsed holds skill entries whose text matched no entry grammar.
	Unparsed []string `json:"unparsed,omitempty"`
}

type Ecology struct {
	Environment  string        `json:"environment"`
	Organization string        `json:"organization,omitempty"`
	TreasureType string        `json:"treasure_type,omitempty"`
	Treasure     []string      `json:"treasure,omitempty"`
	Advancement  []Advancement `json:"advancement_3.5,omitempty"`
}

type Advancement struct {
	Type         string `json:"type"`
	HDMin        *int   `json:"HD_min,omitempty"`
	HDMax        *int   `json:"HD_max,omitempty"`
	Size         string `json:"size,omitempty"`
	FavoredClass string `json:"favored_class,omitempty"`
}
