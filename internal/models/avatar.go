package models

import "fmt"

// avatarAdjectives and avatarAnimals back the "adjective-animal" avatar
// seed scheme assigned to each participant on join.
var avatarAdjectives = []string{
	"swift", "brave", "quiet", "lucky", "bold", "clever", "sunny", "calm",
	"eager", "gentle", "jolly", "keen", "lively", "merry", "nimble", "proud",
}

var avatarAnimals = []string{
	"otter", "falcon", "panda", "lynx", "heron", "badger", "wren", "fox",
	"marlin", "ibex", "crane", "gecko", "moth", "orca", "puma", "quail",
}

// NextAvatarSeed returns the first "adjective-animal" seed not already
// present in taken, enforcing uniqueness within a quiz code. It walks a
// deterministic sequence so the result only depends on what is already
// taken, not on wall-clock or randomness.
func NextAvatarSeed(taken map[string]struct{}) string {
	for ai, a := range avatarAdjectives {
		for ni, n := range avatarAnimals {
			seed := fmt.Sprintf("%s-%s", a, n)
			if _, used := taken[seed]; !used {
				return seed
			}
			_ = ai
			_ = ni
		}
	}
	// Exhausted the base grid (256 combinations) — fall back to a numbered
	// suffix so the room can keep growing instead of colliding.
	for suffix := 2; ; suffix++ {
		for _, a := range avatarAdjectives {
			for _, n := range avatarAnimals {
				seed := fmt.Sprintf("%s-%s-%d", a, n, suffix)
				if _, used := taken[seed]; !used {
					return seed
				}
			}
		}
	}
}
