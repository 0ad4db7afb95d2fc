package statblock

import "github.com/dgallion1/bestiary/internal/quirks"

func melee(a *Attacks) *[][]Attack  { return &a.Melee }
func ranged(a *Attacks) *[][]Attack { return &a.Ranged }

// pipeline lists the extractors in statblock order. Mandatory stages fail
// the document; optional ones degrade to a diagnostic.
var pipeline = []stage{
	{name: "footnotes", run: sweepFootnotes},
	{name: "preamble", run: skipPreamble},
	{name: "title", run: readTitle},
	{name: "challenge rating", run: readChallengeRating},
	{name: "sources", run: readSources},
	{name: "xp", when: atLabel("XP"), optional: true, run: readXP},
	{name: "extra source", when: withQuirk(quirks.ExtraSourceLine), run: readExtraSource},
	{name: "race and class", run: readRaceClass},
	{name: "initiative", run: readInitiative},
	{name: "senses", run: readSenses},
	{name: "aura", when: atLabel("Aura"), optional: true, run: readAuras},

	{name: "defense", run: section("Defense")},
	{name: "AC", run: readAC},
	{name: "HP", run: readHP},
	{name: "saves", run: readSaves},
	{name: "defensive abilities", when: atLabel("Defensive Abilities"), optional: true, run: readDefensiveAbilities},
	{name: "DR", when: atLabel("DR"), optional: true, run: readDR},
	{name: "immunities", when: atLabel("Immune"), optional: true, run: readImmunities},
	{name: "resistances", when: atLabel("Resist"), optional: true, run: readResistances},
	{name: "SR", when: atLabel("SR"), optional: true, run: readSR},
	{name: "defense break", run: optionalBreak},
	{name: "weaknesses", when: atLabel("Weaknesses"), optional: true, run: readWeaknesses},

	{name: "offense", run: section("Offense")},
	{name: "speed", run: readSpeed},
	{name: "melee", when: atLabel("Melee"), optional: true, run: readAttacks("Melee", melee)},
	{name: "ranged", when: atLabel("Ranged"), optional: true, run: readAttacks("Ranged", ranged)},
	{name: "attack break", run: optionalBreak},
	{name: "space", when: atLabel("Space"), optional: true, run: readSpace},
	{name: "reach", when: atLabel("Reach"), optional: true, run: readReach},
	{name: "space break", run: optionalBreak},
	{name: "special attacks", when: atLabel("Special Attacks"), optional: true, run: readSpecialAttacks},
	{name: "spellcasting", when: atSpellBlock, optional: true, repeat: true, run: readSpellBlock, skip: skipSpellBlock},
	{name: "tactics", when: atSection("Tactics"), optional: true, run: readTactics, skip: skipSection},

	{name: "statistics", run: section("Statistics")},
	{name: "ability scores", run: readAbilityScores},
	{name: "combat maneuvers", run: readCombatManeuvers},
	{name: "feats", when: atLabel("Feats"), optional: true, run: readFeats},
	{name: "skills", when: atLabel("Skills"), optional: true, run: readSkills},
	{name: "languages", when: atLabel("Languages"), optional: true, run: readLanguages},
	{name: "special qualities", when: atLabel("SQ"), optional: true, run: readSpecialQualities},
	{name: "gear", when: atGear, optional: true, repeat: true, run: readGear},
	{name: "statistics break", run: skipBreaks},
	{name: "boon", when: atLabel("Boon"), optional: true, run: readBoon},

	{name: "ecology", when: atSection("Ecology"), optional: true, run: readEcology, skip: skipSection},
	{name: "special abilities", when: atSection("Special Abilities"), optional: true, run: readSpecialAbilities, skip: skipSection},
	{name: "description", run: readDescription},
}
