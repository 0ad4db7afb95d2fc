package quirks

// builtin covers the corpus outliers known when the grammar was written.
var builtin = []Override{
	{Statblock: "The Moldering Emperor", Field: RaceOnly, Note: "race line without class levels or parenthetical"},
	{Statblock: "Ugash-Iram", Field: RaceAfterAlignment, Note: "unique race line printed after the alignment line"},
	{Statblock: "Nupperibo", Field: ExtraSourceLine, Note: "third-party citation line for the official material"},
	{Statblock: "Shifty Noble", Field: HPParenthetical, TrimSuffix: "+", Note: "bonus hp missing after the trailing plus"},
	{Statblock: "Osirion Mummy", Field: ClassHitDie, Value: "12", Note: "trades class hit dice for d12s"},
	{Statblock: "Night Scale Assassin", Field: ClassHitDie, Target: "assassin", Value: "4", Note: "assassin levels use d4"},
	{Statblock: "Queen of Staves", Field: Resist, Value: "fire 5", Note: "printed as Resist 5 fire"},
	{Statblock: "Formless Spawn", Field: Melee, TrimSuffix: ",", Note: "trailing comma after the last attack"},
	{Statblock: "Ghristah", Field: AttackSplitAnyOr, Note: "alternative attacks joined by a bare or"},
	{Statblock: "Death Worm Leviathan", Field: AttackTouchPrefix, Note: "touch qualifier printed inside the damage parenthetical"},
	{Statblock: "Clockwork Assassin", Field: AttackAlternativeDamage, Note: "attack deals damage or releases smoke"},
	{Statblock: "Anemos", Field: AttackNoAndSplit, Note: "and is part of the effect text"},
	{Statblock: "Heresy Devil (Ayngavhaul)", Field: AttackNoAndSplit, Note: "and is part of the effect text"},
	{Statblock: "Orynox Marchelin, Fire Giant King", Field: AttackNoAndSplit, Note: "and is part of the effect text"},
	{Statblock: "Wereboar (Hybrid Form)", Field: AttackSlashSplit, Note: "damage alternatives separated by a slash"},
	{Statblock: "Beggar", Field: SkillWithoutBonus, Value: "Perform (wind)", Note: "skill listed without a bonus"},
	{Statblock: "Cloaker", Field: RacialModsUnsplit, Note: "racial modifier text contains commas"},
	{Statblock: "Tulpa", Field: RacialModsUnsplit, Note: "racial modifier text contains commas"},
}

// Builtin returns the registry of built-in overrides.
func Builtin() *Registry {
	r, err := New(builtin...)
	if err != nil {
		panic("quirks: invalid builtin override: " + err.Error())
	}
	return r
}
