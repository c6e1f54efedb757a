package words

// CommonFragments is the default wordpiece pool.
var CommonFragments = []string{
	"ing", "er", "re", "ion", "ed", "es", "th", "an", "in", "on",
	"at", "en", "st", "al", "ar", "or", "te", "ti", "ro", "le",
	"ent", "ate", "con", "ter", "ne", "ra", "ea", "ou", "un", "ch",
}

// HardFragments is drawn from for trapped players.
var HardFragments = []string{
	"ght", "phr", "mn", "sch", "tch", "dge", "psy", "rhy", "xt", "zz",
	"qu", "wr", "kn", "mb", "gn", "yst", "ique", "nch", "thm", "lve",
}

// Source is the slice of math/rand/v2.Rand the pools need.
type Source interface {
	IntN(n int) int
}

// Fragment draws a wordpiece uniformly from the hard or the common pool.
func Fragment(hard bool, rng Source) string {
	pool := CommonFragments
	if hard {
		pool = HardFragments
	}
	return pool[rng.IntN(len(pool))]
}
